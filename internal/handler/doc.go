// Package handler 按业务划分 HTTP 处理器：content 与 support 为公开接口，admin 为后台接口。
//
// 生成文档：swag init -g cmd/helpcenter/main.go --dir ./,./internal/handler -o docs
package handler

// Package validate 注册业务校验标签并把校验错误转换为可读消息
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// 自定义校验标签
const (
	TagSlug           = "slug"
	TagTicketType     = "ticket_type"
	TagTicketStatus   = "ticket_status"
	TagTicketPriority = "ticket_priority"
	TagLocale         = "locale"
)

// Register 在校验器上注册业务标签，并使用 json 字段名报告错误
//
// supported 为 locale 标签接受的语言代码
func Register(v *validator.Validate, supported []string) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	locales := make(map[string]struct{}, len(supported))
	for _, code := range supported {
		locales[code] = struct{}{}
	}

	rules := map[string]validator.Func{
		TagSlug: func(fl validator.FieldLevel) bool {
			return utils.ValidateSlug(fl.Field().String())
		},
		TagTicketType: func(fl validator.FieldLevel) bool {
			return models.IsValidTicketType(fl.Field().String())
		},
		TagTicketStatus: func(fl validator.FieldLevel) bool {
			return models.IsValidTicketStatus(fl.Field().String())
		},
		TagTicketPriority: func(fl validator.FieldLevel) bool {
			return models.IsValidTicketPriority(fl.Field().String())
		},
		TagLocale: func(fl validator.FieldLevel) bool {
			_, ok := locales[strings.ToLower(fl.Field().String())]
			return ok
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// RegisterGin 在 gin 默认校验引擎上注册业务标签
func RegisterGin(supported []string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return Register(v, supported)
}

// Message 将绑定错误转换为面向用户的消息
func Message(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return "Invalid request body"
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case TagSlug:
		return field + " must be lowercase letters, numbers and hyphens"
	case TagTicketType:
		return fmt.Sprintf("Invalid ticket type: %v", fe.Value())
	case TagTicketStatus:
		return fmt.Sprintf("Invalid status: %v", fe.Value())
	case TagTicketPriority:
		return fmt.Sprintf("Invalid priority: %v", fe.Value())
	case TagLocale:
		return fmt.Sprintf("Unsupported locale: %v", fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

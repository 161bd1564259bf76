package mail

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP 接受一个连接并记录 DATA 内容
func fakeSMTP(t *testing.T) (int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(line string) { fmt.Fprintf(conn, "%s\r\n", line) }
		reply("220 fake ESMTP")

		var body strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if inData {
				if line == "." {
					inData = false
					data <- body.String()
					reply("250 queued")
					continue
				}
				body.WriteString(line + "\n")
				continue
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("250 ok")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, data
}

func TestSMTPSender_SendsMultipart(t *testing.T) {
	port, data := fakeSMTP(t)
	sender := NewSMTPSender(&SMTPConfig{
		Host: "127.0.0.1",
		Port: port,
		From: Address{Name: "Subcold Support", Email: "noreply@example.com"},
	})

	err := sender.Send(context.Background(), &Message{
		To:      []string{"jane@example.com"},
		Subject: "Re: TKT-000001",
		HTML:    "<p>Hello Jane,</p><p>Your replacement has shipped.</p>",
	})
	require.NoError(t, err)

	select {
	case body := <-data:
		assert.Contains(t, body, "Subject: Re: TKT-000001")
		assert.Contains(t, body, "multipart/alternative")
		assert.Contains(t, body, "Content-Type: text/plain")
		assert.Contains(t, body, "Content-Type: text/html")
		assert.Contains(t, body, "Hello Jane,\n\nYour replacement has shipped.")
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestSMTPSender_SendTimeoutBoundsSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	// 接受连接但不发送问候语
	conns := make(chan net.Conn, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			conns <- conn
		}
	}()
	defer func() {
		select {
		case conn := <-conns:
			_ = conn.Close()
		default:
		}
	}()

	sender := NewSMTPSender(&SMTPConfig{
		Host:        "127.0.0.1",
		Port:        ln.Addr().(*net.TCPAddr).Port,
		From:        Address{Email: "noreply@example.com"},
		SendTimeout: 200 * time.Millisecond,
	})

	start := time.Now()
	err = sender.Send(context.Background(), &Message{To: []string{"jane@example.com"}, Subject: "Hello", HTML: "<p>hi</p>"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewSMTPSender_Timeouts(t *testing.T) {
	s := NewSMTPSender(&SMTPConfig{Host: "smtp.example.com", Port: 587})
	assert.Equal(t, defaultDialTimeout, s.dialTimeout)
	assert.Equal(t, defaultSendTimeout, s.sendTimeout)
	assert.False(t, s.ssl)

	s = NewSMTPSender(&SMTPConfig{Host: "smtp.example.com", Port: 465, DialTimeout: 3 * time.Second})
	assert.Equal(t, 3*time.Second, s.dialTimeout)
	assert.True(t, s.ssl)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraphs", "<p>Hello Jane,</p><p>Thanks for waiting.</p>", "Hello Jane,\n\nThanks for waiting."},
		{"line break", "Line one<br>Line two", "Line one\nLine two"},
		{"entities", "<p>Fish &amp; chips</p>", "Fish & chips"},
		{"style dropped", "<style>p{color:red}</style><div>Body</div>", "Body"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

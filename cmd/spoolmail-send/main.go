// spoolmail-send composes a plain-text message and submits it to an SMTP
// server: implicit TLS on port 465, STARTTLS when the server offers it,
// plaintext otherwise. Useful for poking a relay without a mail client.
package main

import (
	"bytes"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"golang.org/x/term"
)

var (
	to       = flag.String("to", "", "Recipient address (required)")
	subject  = flag.String("subject", "", "Message subject")
	body     = flag.String("body", "", "Message body (read from stdin when empty)")
	server   = flag.String("server", "localhost", "SMTP server hostname")
	port     = flag.Int("port", 587, "SMTP server port (465 uses implicit TLS)")
	username = flag.String("username", "", "SMTP username")
	password = flag.String("password", "", "SMTP password (prompted when -username is set and this is empty)")
	from     = flag.String("from", "", "Sender address (defaults to the username)")
	noauth   = flag.Bool("noauth", false, "Skip authentication")
)

func main() {
	flag.Parse()

	if *to == "" {
		fmt.Fprintln(os.Stderr, "spoolmail-send: -to is required")
		os.Exit(2)
	}

	sender := *from
	if sender == "" {
		sender = *username
	}
	if sender == "" {
		fmt.Fprintln(os.Stderr, "spoolmail-send: provide -from or -username")
		os.Exit(2)
	}

	pass := *password
	if !*noauth && *username != "" && pass == "" {
		fmt.Printf("Password for %s: ", *username)
		entered, err := term.ReadPassword(0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "spoolmail-send: failed to read password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		pass = string(entered)
	}

	text := *body
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "spoolmail-send: failed to read body from stdin: %v\n", err)
			os.Exit(1)
		}
		text = string(data)
	}

	msg, err := buildMessage(sender, *to, *subject, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spoolmail-send: %v\n", err)
		os.Exit(1)
	}

	useAuth := !*noauth && *username != ""
	if err := send(*server, *port, useAuth, *username, pass, sender, *to, msg); err != nil {
		fmt.Fprintf(os.Stderr, "spoolmail-send: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message sent to %s via %s:%d\n", *to, *server, *port)
}

func buildMessage(from, to, subject, body string) ([]byte, error) {
	var h message.Header
	h.Set("From", from)
	h.Set("To", to)
	h.Set("Subject", subject)
	h.Set("Date", time.Now().Format(time.RFC1123Z))
	h.Set("MIME-Version", "1.0")
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := message.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("message.CreateWriter: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("w.Write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("w.Close: %w", err)
	}
	return buf.Bytes(), nil
}

func send(host string, port int, useAuth bool, username, password, from, to string, msg []byte) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var client *smtp.Client
	if port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
		if err != nil {
			return fmt.Errorf("tls.Dial: %w", err)
		}
		client, err = smtp.NewClient(conn, host)
		if err != nil {
			conn.Close() // nolint:errcheck
			return fmt.Errorf("smtp.NewClient: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp.Dial: %w", err)
		}
		client = c
	}
	defer client.Close()

	if err := client.Hello("spoolmail-send"); err != nil {
		return fmt.Errorf("client.Hello: %w", err)
	}

	if port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return fmt.Errorf("client.StartTLS: %w", err)
			}
		}
	}

	if useAuth {
		if err := client.Auth(sasl.NewPlainClient("", username, password)); err != nil {
			return fmt.Errorf("client.Auth: %w", err)
		}
	}

	if err := client.Mail(from, nil); err != nil {
		return fmt.Errorf("client.Mail: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("client.Rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("client.Data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close() // nolint:errcheck
		return fmt.Errorf("w.Write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("w.Close: %w", err)
	}
	return client.Quit()
}

package mailer

import "sync"

// MockMailer records sent mails for assertions in tests.
type MockMailer struct {
	mu   sync.Mutex
	Sent []MockMail
}

type MockMail struct {
	Recipient    string
	TemplateFile string
	Data         any
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, MockMail{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

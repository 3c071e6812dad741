package notification

import "testing"

func TestValidateWebhookURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"loopback name", "http://localhost/hook", true},
		{"loopback ip", "http://127.0.0.1:9000/hook", true},
		{"unspecified", "http://0.0.0.0/hook", true},
		{"bad scheme", "ftp://example.com/hook", true},
		{"not a url", "://nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWebhookURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateWebhookURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oli-store-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		SMSAPIURL:   apiURL,
		SMSUsername: "acme",
		SMSAPIKey:   "secret",
		SMSSenderID: "MOBTIN",
		SMSRoute:    "OTP",
	}
}

func TestHTTPSender_SendsProviderParams(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"username": q.Get("username"),
			"apikey":   q.Get("apikey"),
			"senderid": q.Get("senderid"),
			"route":    q.Get("route"),
			"mobile":   q.Get("mobile"),
			"text":     q.Get("text"),
		}
		_, _ = w.Write([]byte("Message Submitted"))
	}))
	defer srv.Close()

	s := NewHTTPSender(testConfig(srv.URL))
	ok := s.SendOTP(context.Background(), "5551234567", "123456")

	require.True(t, ok)
	assert.Equal(t, "acme", got["username"])
	assert.Equal(t, "secret", got["apikey"])
	assert.Equal(t, "MOBTIN", got["senderid"])
	assert.Equal(t, "OTP", got["route"])
	assert.Equal(t, "5551234567", got["mobile"])
	assert.Contains(t, got["text"], "123456")
	assert.Contains(t, got["text"], "MOBTIN")
}

func TestHTTPSender_ErrorBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Error: invalid apikey"))
	}))
	defer srv.Close()

	s := NewHTTPSender(testConfig(srv.URL))
	assert.False(t, s.SendOTP(context.Background(), "5551234567", "123456"))
}

func TestHTTPSender_Non200Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSender(testConfig(srv.URL))
	assert.False(t, s.SendOTP(context.Background(), "5551234567", "123456"))
}

func TestHTTPSender_UnreachableProviderFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	s := NewHTTPSender(testConfig(srv.URL))
	assert.False(t, s.SendOTP(context.Background(), "5551234567", "123456"))
}

package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const keyRateResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <KeyRateResponse xmlns="http://web.cbr.ru/">
      <KeyRateResult>
        <diffgr:diffgram xmlns:diffgr="urn:schemas-microsoft-com:xml-diffgram-v1">
          <KeyRate xmlns="">
            <KR><DT>2026-10-16T00:00:00+03:00</DT><Rate>16.50</Rate></KR>
            <KR><DT>2026-10-15T00:00:00+03:00</DT><Rate>17.00</Rate></KR>
          </KeyRate>
        </diffgr:diffgram>
      </KeyRateResult>
    </KeyRateResponse>
  </soap:Body>
</soap:Envelope>`

func TestParseKeyRate(t *testing.T) {
	rate, err := parseKeyRate([]byte(keyRateResponse))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 16.5 {
		t.Errorf("expected the first rate 16.5, got %v", rate)
	}
}

func TestParseKeyRate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "<<<"},
		{"no rows", `<Envelope><diffgram><KeyRate></KeyRate></diffgram></Envelope>`},
		{"no rate", `<Envelope><diffgram><KeyRate><KR><DT>x</DT></KR></KeyRate></diffgram></Envelope>`},
		{"bad number", `<Envelope><diffgram><KeyRate><KR><Rate>abc</Rate></KR></KeyRate></diffgram></Envelope>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseKeyRate([]byte(tt.body)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestBuildKeyRateRequest(t *testing.T) {
	body := buildKeyRateRequest(time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(body, "<fromDate>2026-09-17</fromDate>") {
		t.Errorf("expected a 30 day window start, got %s", body)
	}
	if !strings.Contains(body, "<ToDate>2026-10-17</ToDate>") {
		t.Errorf("expected the window to end today, got %s", body)
	}
}

func TestGetReferenceRate(t *testing.T) {
	var gotAction string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		_, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/soap+xml")
		_, _ = w.Write([]byte(keyRateResponse))
	}))
	defer server.Close()

	client := NewReferenceRateClient(server.URL, 4.25, testLogger())
	ref, err := client.GetReferenceRate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAction != "http://web.cbr.ru/KeyRate" {
		t.Errorf("unexpected SOAPAction %q", gotAction)
	}
	if ref.KeyRate != 16.5 || ref.Margin != 4.25 || ref.SuggestedAnnualRate != 20.75 {
		t.Errorf("unexpected reference rate: %+v", ref)
	}
	if ref.Source != server.URL {
		t.Errorf("expected source %s, got %s", server.URL, ref.Source)
	}
}

func TestGetReferenceRate_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewReferenceRateClient(server.URL, 0, testLogger())
	if _, err := client.GetReferenceRate(context.Background()); err == nil {
		t.Fatalf("expected an error for a non-200 answer")
	}
}

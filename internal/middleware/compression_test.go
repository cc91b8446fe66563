// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompression(t *testing.T) {
	body := strings.Repeat("Tienda Naucalpan,", 100)
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1700")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))

	tests := []struct {
		name           string
		acceptEncoding string
		upgrade        string
		wantGzip       bool
	}{
		{"gzip accepted", "gzip", "", true},
		{"gzip among others", "deflate, gzip;q=0.8", "", true},
		{"no accept header", "", "", false},
		{"websocket upgrade", "gzip", "websocket", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/points", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			if tt.upgrade != "" {
				req.Header.Set("Upgrade", tt.upgrade)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			gotGzip := rec.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("gzip = %v, want %v", gotGzip, tt.wantGzip)
			}
			if !tt.wantGzip {
				if rec.Body.String() != body {
					t.Error("uncompressed body altered")
				}
				return
			}

			if rec.Header().Get("Content-Length") != "" {
				t.Error("Content-Length must be dropped for gzip responses")
			}
			reader, err := gzip.NewReader(rec.Body)
			if err != nil {
				t.Fatalf("gzip.NewReader: %v", err)
			}
			defer reader.Close()
			decompressed, err := io.ReadAll(reader)
			if err != nil {
				t.Fatal(err)
			}
			if string(decompressed) != body {
				t.Error("decompressed body mismatch")
			}
		})
	}
}

func TestCompression_ImplicitStatus(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

package documentai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoscan/internal/config"
)

// Document text laid out so segment indexes below are easy to audit:
//
//	[0,11]  TAX INVOICE
//	[12,27] Bharath Traders
//	[28,33] GSTIN
//	[34,49] 32AAXFB6381L1ZU
const docText = "TAX INVOICE\nBharath Traders\nGSTIN 32AAXFB6381L1ZU\n"

// startIndex is omitted for the first segment; Document AI drops
// zero-valued fields.
const processFixture = `{
  "document": {
    "text": ` + "%s" + `,
    "pages": [
      {
        "blocks": [
          {"layout": {"textAnchor": {"textSegments": [{"endIndex": "11"}]}, "confidence": 0.9}},
          {"layout": {"textAnchor": {"textSegments": [{"startIndex": "12", "endIndex": "27"}]}, "confidence": 0.96}},
          {"layout": {"textAnchor": {"textSegments": [{"startIndex": "28", "endIndex": "33"}]}}}
        ],
        "tables": [
          {
            "headerRows": [
              {"cells": [
                {"layout": {"textAnchor": {"textSegments": [{"startIndex": "28", "endIndex": "33"}]}}},
                {"layout": {"textAnchor": {"textSegments": [{"startIndex": "12", "endIndex": "27"}]}}}
              ]}
            ],
            "bodyRows": [
              {"cells": [
                {"layout": {"textAnchor": {"textSegments": [{"startIndex": "34", "endIndex": "49"}]}}}
              ]}
            ]
          }
        ],
        "formFields": [
          {
            "fieldName": {"textAnchor": {"textSegments": [{"startIndex": "28", "endIndex": "34"}]}, "confidence": 0.88},
            "fieldValue": {"textAnchor": {"textSegments": [{"startIndex": "34", "endIndex": "49"}]}}
          }
        ]
      }
    ]
  }
}`

func fixtureJSON(t *testing.T) string {
	t.Helper()
	quoted, err := json.Marshal(docText)
	require.NoError(t, err)
	return fmt.Sprintf(processFixture, quoted)
}

func TestExtractText(t *testing.T) {
	var gotAuth string
	var gotReq struct {
		RawDocument struct {
			Content  string `json:"content"`
			MimeType string `json:"mimeType"`
		} `json:"rawDocument"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, fixtureJSON(t))
	}))
	defer srv.Close()

	c := NewClientWithEndpoint(&config.OCRConfig{AccessToken: "gcp-token"}, srv.URL)

	pdf := []byte("%PDF-1.7 fake")
	result, err := c.ExtractText(context.Background(), pdf)
	require.NoError(t, err)

	assert.Equal(t, "Bearer gcp-token", gotAuth)
	assert.Equal(t, "application/pdf", gotReq.RawDocument.MimeType)
	decoded, err := base64.StdEncoding.DecodeString(gotReq.RawDocument.Content)
	require.NoError(t, err)
	assert.Equal(t, pdf, decoded)

	assert.Equal(t, docText, result.FullText)

	require.Len(t, result.Blocks, 3)
	assert.Equal(t, "TAX INVOICE", result.Blocks[0].Text)
	assert.Equal(t, "Bharath Traders", result.Blocks[1].Text)
	assert.Equal(t, 0.9, result.Blocks[0].Confidence)

	// Average skips zero-confidence blocks.
	assert.InDelta(t, 0.93, result.Confidence, 1e-9)

	require.Len(t, result.Tables, 1)
	assert.Equal(t, [][]string{{"GSTIN", "Bharath Traders"}}, result.Tables[0].Headers)
	assert.Equal(t, [][]string{{"32AAXFB6381L1ZU"}}, result.Tables[0].Rows)

	require.Len(t, result.KeyValuePairs, 1)
	assert.Equal(t, "GSTIN", result.KeyValuePairs[0].Key)
	assert.Equal(t, "32AAXFB6381L1ZU", result.KeyValuePairs[0].Value)
	assert.Equal(t, 0.88, result.KeyValuePairs[0].Confidence)
}

func TestExtractText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"permission denied"}}`)
	}))
	defer srv.Close()

	c := NewClientWithEndpoint(&config.OCRConfig{AccessToken: "expired"}, srv.URL)
	_, err := c.ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestParseProcessResponse_EmptyDocument(t *testing.T) {
	result, err := parseProcessResponse([]byte(`{"document":{"text":""}}`))
	require.NoError(t, err)
	assert.Empty(t, result.FullText)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Blocks)
}

func TestAnchorText_OutOfRangeSegments(t *testing.T) {
	l := layout{}
	l.TextAnchor.TextSegments = []struct {
		StartIndex string `json:"startIndex"`
		EndIndex   string `json:"endIndex"`
	}{
		{StartIndex: "0", EndIndex: "4"},
		{StartIndex: "90", EndIndex: "95"},
		{StartIndex: "7", EndIndex: "3"},
	}
	assert.Equal(t, "abcd", anchorText(l, "abcdefgh"))
}

package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/usestring/kotoba-mcp/pkg/client"
)

const validSearchPayload = `{
	"convertedQuery": "力士",
	"totalResults": 1,
	"pageNum": 1,
	"hasNextPage": false,
	"maxPageReached": false,
	"articleResults": [{
		"articleId": 42,
		"title": "大相撲",
		"sourceName": "NHK",
		"sourceUrl": "https://example.jp/a/42",
		"publicationDatetime": "2024-05-01T09:30:00+09:00",
		"instanceCount": 3,
		"tags": ["sports"],
		"mainSampleText": {"segments": [{"text": "力士", "isQueryMatch": true}, {"text": "が", "isQueryMatch": false}]},
		"moreSampleTexts": []
	}]
}`

func newSearchValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidatorFor("search", &client.SearchResponse{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestValidator_AcceptsValidSearchPayload(t *testing.T) {
	v := newSearchValidator(t)

	if err := v.Validate([]byte(validSearchPayload)); err != nil {
		t.Errorf("expected valid, got: %v", err)
	}
}

func TestValidator_AllowsUnknownFields(t *testing.T) {
	v := newSearchValidator(t)

	payload := strings.Replace(validSearchPayload, `"pageNum": 1,`, `"pageNum": 1, "debug": {"ms": 12},`, 1)
	if err := v.Validate([]byte(payload)); err != nil {
		t.Errorf("expected valid, got: %v", err)
	}
}

func TestValidator_RejectsMissingRequiredField(t *testing.T) {
	v := newSearchValidator(t)

	payload := strings.Replace(validSearchPayload, `"totalResults": 1,`, "", 1)
	err := v.Validate([]byte(payload))
	if err == nil {
		t.Fatal("expected invalid for missing totalResults")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Target != "search" {
		t.Errorf("expected target search, got %q", verr.Target)
	}
	if !strings.Contains(strings.Join(verr.Errors, " "), "totalResults") {
		t.Errorf("expected error to mention totalResults, got %v", verr.Errors)
	}
}

func TestValidator_RejectsBadDatetime(t *testing.T) {
	v := newSearchValidator(t)

	payload := strings.Replace(validSearchPayload, `"2024-05-01T09:30:00+09:00"`, `"last tuesday"`, 1)
	if err := v.Validate([]byte(payload)); err == nil {
		t.Error("expected invalid for non ISO-8601 publicationDatetime")
	}
}

func TestValidator_RejectsWrongType(t *testing.T) {
	v := newSearchValidator(t)

	payload := strings.Replace(validSearchPayload, `"articleId": 42`, `"articleId": "42"`, 1)
	err := v.Validate([]byte(payload))
	if err == nil {
		t.Fatal("expected invalid for string articleId")
	}
	if !strings.Contains(err.Error(), "articleResults/0/articleId") {
		t.Errorf("expected path in error, got %v", err)
	}
}

func TestValidator_RejectsInvalidJSON(t *testing.T) {
	v := newSearchValidator(t)

	err := v.Validate([]byte(`{"convertedQuery":`))
	if err == nil {
		t.Fatal("expected invalid JSON error")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidator_ResourceLinks(t *testing.T) {
	v, err := NewValidatorFor("resource-links", &client.ResourceLinksResponse{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid := `{"convertedQuery":"OB","resourceLinkSets":[{"resourceName":"Jisho","links":[{"linkText":"OB","resourceUrl":"https://jisho.org/search/OB"}]}]}`
	if err := v.Validate([]byte(valid)); err != nil {
		t.Errorf("expected valid, got: %v", err)
	}

	if err := v.Validate([]byte(`{"convertedQuery":"OB"}`)); err == nil {
		t.Error("expected invalid for missing resourceLinkSets")
	}

	if v.Schema()["type"] != "object" {
		t.Errorf("expected object schema, got %v", v.Schema()["type"])
	}
}

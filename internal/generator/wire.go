package generator

import (
	"bytes"
	"encoding/json"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type responseSchema struct {
	Type       string                     `json:"type"`
	Properties map[string]*responseSchema `json:"properties,omitempty"`
	Items      *responseSchema            `json:"items,omitempty"`
	Required   []string                   `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   *responseSchema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func encodeRequest(req generateRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func object(required []string, props map[string]*responseSchema) *responseSchema {
	return &responseSchema{Type: "OBJECT", Properties: props, Required: required}
}

func array(items *responseSchema) *responseSchema {
	return &responseSchema{Type: "ARRAY", Items: items}
}

var (
	str = &responseSchema{Type: "STRING"}
	num = &responseSchema{Type: "NUMBER"}
)

var scoreSchema = object(
	[]string{"alignment", "feasibility", "impact", "novelty", "totalScore", "decision", "rationale"},
	map[string]*responseSchema{
		"alignment":   num,
		"feasibility": num,
		"impact":      num,
		"novelty":     num,
		"totalScore":  num,
		"decision":    str,
		"rationale":   str,
	})

var variantsSchema = array(object(
	[]string{"title", "hook", "format", "length", "suggested_cta", "tags", "confidence_score"},
	map[string]*responseSchema{
		"title":            str,
		"hook":             str,
		"format":           str,
		"length":           str,
		"suggested_cta":    str,
		"tags":             array(str),
		"confidence_score": num,
	}))

var briefSchema = object(
	[]string{"storyboard", "assetsList", "shotList", "editNotes"},
	map[string]*responseSchema{
		"storyboard": array(str),
		"assetsList": array(str),
		"shotList":   array(str),
		"editNotes":  str,
	})

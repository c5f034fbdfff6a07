package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const conventionPrompt = "Analyse ce document de convention de formation. Extrait le nom de l'entreprise cliente, " +
	"le sujet/nom de la formation, les dates (format YYYY-MM-DD impératif) et la liste des participants " +
	"(nom, email fictif si absent, rôle si présent). Si la formation dure plusieurs jours, retourne toutes les dates."

const objectivesPrompt = "Génère une liste de 4 objectifs pédagogiques concis pour une attestation de formation intitulée : %q. " +
	"Réponds uniquement avec un tableau JSON de chaînes de caractères."

// Client communicates with the document-analysis model endpoint over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a Client targeting the given analysis endpoint.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type analyzeRequest struct {
	Model    string           `json:"model"`
	Prompt   string           `json:"prompt"`
	Text     string           `json:"text,omitempty"`
	Document *documentPayload `json:"document,omitempty"`
}

type documentPayload struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
}

// ExtractConvention submits the uploaded document and decodes the structured
// extraction. PDF uploads are reduced to plain text locally; other formats
// (scans, photos) go inline for the model to read.
func (c *Client) ExtractConvention(ctx context.Context, data []byte, mimeType string) (Result, error) {
	request := analyzeRequest{
		Model:  c.model,
		Prompt: conventionPrompt,
	}

	if mimeType == "application/pdf" {
		text, err := extractPDFText(data)
		if err != nil {
			return Result{}, fmt.Errorf("extracting pdf text: %w", err)
		}
		request.Text = text
	} else {
		request.Document = &documentPayload{
			Data:     base64.StdEncoding.EncodeToString(data),
			MIMEType: mimeType,
		}
	}

	var result Result
	if err := c.postJSON(ctx, "/v1/analyze", request, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

// TrainingObjectives asks the model for certificate objectives. Callers fall
// back to DefaultObjectives when this fails.
func (c *Client) TrainingObjectives(ctx context.Context, trainingName string) ([]string, error) {
	request := analyzeRequest{
		Model:  c.model,
		Prompt: fmt.Sprintf(objectivesPrompt, trainingName),
	}

	var objectives []string
	if err := c.postJSON(ctx, "/v1/generate", request, &objectives); err != nil {
		return nil, err
	}
	if len(objectives) == 0 {
		return nil, fmt.Errorf("empty objective list returned")
	}
	return objectives, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

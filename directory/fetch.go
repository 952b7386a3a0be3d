package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/opd-ai/liteclient/limits"
	"github.com/sirupsen/logrus"
)

// Published global config documents.
const (
	TestnetConfigURL = "https://ton.org/testnet-global.config.json"
	MainnetConfigURL = "https://ton.org/global-config.json"
)

// ErrFetchStatus indicates the config server answered with a non-2xx status.
var ErrFetchStatus = errors.New("non success response from global config url")

// Fetch downloads and parses a global config document. It does not retry:
// any failure is a configuration error for the caller to report.
func Fetch(ctx context.Context, client *http.Client, url string) (*Directory, error) {
	if client == nil {
		client = http.DefaultClient
	}

	logrus.WithFields(logrus.Fields{
		"function": "Fetch",
		"url":      url,
	}).Debug("Fetching global config")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build request to global config: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot send request to global config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"function": "Fetch",
			"url":      url,
			"status":   resp.StatusCode,
		}).Error("Global config request failed")
		return nil, fmt.Errorf("%w: %s", ErrFetchStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limits.MaxDirectoryDocument+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read response from global config: %w", err)
	}
	if len(body) > limits.MaxDirectoryDocument {
		return nil, &ParseError{Index: -1, Field: "document", Err: fmt.Errorf("exceeds %d bytes", limits.MaxDirectoryDocument)}
	}

	return Load(body)
}

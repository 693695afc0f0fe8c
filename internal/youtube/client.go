package youtube

import (
	"context"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/bitArtisan1/capscript/internal/errors"
)

// NewService builds an authenticated YouTube Data API client for one run.
// The service is constructed once and passed to every component that needs
// it; there is no shared global handle.
func NewService(ctx context.Context, apiKey string, opts ...option.ClientOption) (*ytapi.Service, error) {
	if apiKey == "" {
		return nil, errors.New(errors.CodeInvalidArg, "YouTube Data API key is required")
	}
	allOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, allOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeTransport, "failed to initialize YouTube service")
	}
	return svc, nil
}

// ValidateKey probes the API with a minimal search request to confirm the
// key is accepted.
func ValidateKey(ctx context.Context, svc *ytapi.Service) error {
	_, err := svc.Search.List([]string{"id"}).Q("test").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, errors.CodeTransport, "API key validation failed")
	}
	return nil
}

package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPNGRequiresURLAndOutput(t *testing.T) {
	t.Parallel()

	assert.ErrorContains(t, PNG(context.Background(), Options{OutputPath: "x.png"}), "URL is required")
	assert.ErrorContains(t, PNG(context.Background(), Options{URL: "http://127.0.0.1"}), "OutputPath is required")
}

func TestBasicAuthHeader(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Basic YWxhZGRpbjpvcGVuc2VzYW1l", BasicAuthHeader("aladdin", "opensesame"))
}

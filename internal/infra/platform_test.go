package infra

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Only a 404 from the pre-apply Get means net-new creation; any other
// failure must abort the apply rather than misreport Created.
func TestProbeExistence(t *testing.T) {
	notFound := &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"}
	forbidden := &azcore.ResponseError{StatusCode: http.StatusForbidden, ErrorCode: "AuthorizationFailed"}
	transport := errors.New("connection reset")

	created, err := probeExistence(nil)
	if err != nil || created {
		t.Errorf("existing resource: created=%v err=%v, want false and nil", created, err)
	}

	created, err = probeExistence(notFound)
	if err != nil || !created {
		t.Errorf("missing resource: created=%v err=%v, want true and nil", created, err)
	}

	if _, err := probeExistence(forbidden); !errors.Is(err, forbidden) {
		t.Error("forbidden probe did not abort with the original error")
	}
	if _, err := probeExistence(transport); !errors.Is(err, transport) {
		t.Error("transport failure did not abort with the original error")
	}
}

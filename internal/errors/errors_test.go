package appErrors_test

import (
	"errors"
	"fmt"
	"testing"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", appErrors.NewCampaignNotFound("c1"))

	if got := appErrors.KindOf(err); got != appErrors.KindNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	if !appErrors.Is(err, appErrors.KindNotFound) {
		t.Errorf("expected Is to match not_found")
	}
	if appErrors.KindOf(errors.New("plain")) != appErrors.KindUnknown {
		t.Errorf("expected unknown kind for plain error")
	}
}

func TestNewExternalKeepsAppErrors(t *testing.T) {
	conflict := appErrors.NewConflict("assign", "campaign %s already assigned", "c1")
	if got := appErrors.NewExternal("store", conflict); got != conflict {
		t.Errorf("expected existing AppError to pass through unchanged")
	}

	cause := errors.New("connection refused")
	wrapped := appErrors.NewExternal("store", cause)
	if appErrors.KindOf(wrapped) != appErrors.KindExternalService {
		t.Errorf("expected external_service, got %s", appErrors.KindOf(wrapped))
	}
	if !errors.Is(wrapped, cause) {
		t.Errorf("expected wrapped error to unwrap to cause")
	}
	if wrapped.Error() != "store: connection refused" {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
	if appErrors.NewExternal("store", nil) != nil {
		t.Errorf("expected nil for nil cause")
	}
}

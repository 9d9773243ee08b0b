package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"aivideo/internal/providers/runway"
)

type fakeAccount struct {
	account *runway.Account
	err     error
	hadDL   bool
}

func (f *fakeAccount) Model() string { return "gen4_turbo" }

func (f *fakeAccount) Me(ctx context.Context) (*runway.Account, error) {
	_, f.hadDL = ctx.Deadline()
	return f.account, f.err
}

func TestCheckRunwayAccountLogsCredits(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	acct := &fakeAccount{account: &runway.Account{Credits: 125}}

	got, err := CheckRunwayAccount(context.Background(), acct, time.Second, logger)
	if err != nil || got.Credits != 125 {
		t.Fatalf("check = %+v, %v", got, err)
	}
	if !acct.hadDL {
		t.Fatal("account request should carry a deadline")
	}
	out := buf.String()
	if !strings.Contains(out, `"credits":125`) || !strings.Contains(out, `"model":"gen4_turbo"`) {
		t.Fatalf("unexpected log: %s", out)
	}
}

func TestCheckRunwayAccountFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	acct := &fakeAccount{err: errors.New("runway: 401")}

	if _, err := CheckRunwayAccount(context.Background(), acct, time.Second, logger); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "runway: 401") {
		t.Fatalf("unexpected log: %s", buf.String())
	}
}

// Package corelend runs the §8 end-to-end scenarios against the real
// backstop engine from a YAML fixture, grounded on the teacher's
// tests/ledger/supply_projection_test.go: a root-level tests/ package that
// loads a data fixture with gopkg.in/yaml.v3 and asserts engine behaviour
// against it, rather than hand-writing the same literals in Go.
package corelend

import (
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gopkg.in/yaml.v3"

	"corelend/backstop"
	"corelend/crypto"
	"corelend/ledger"
	"corelend/storage"
)

type scenarioStep struct {
	Op     string `yaml:"op"`
	User   string `yaml:"user"`
	To     string `yaml:"to"`
	Amount string `yaml:"amount"`
	First  bool   `yaml:"first"`
	At     uint64 `yaml:"at"`
}

type scenarioWant struct {
	User      string `yaml:"user"`
	TokensOut string `yaml:"tokens_out"`
	Q4WCount  int    `yaml:"q4w_count"`
	Q4WAmount string `yaml:"q4w_amount"`
}

type scenario struct {
	Name  string         `yaml:"name"`
	Steps []scenarioStep `yaml:"steps"`
	Want  scenarioWant   `yaml:"want"`
}

type scenarioFile struct {
	Scenarios []scenario `yaml:"scenarios"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(filename), "scenarios.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read scenario fixture: %v", err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		t.Fatalf("decode scenario fixture: %v", err)
	}
	return file.Scenarios
}

func bigAmount(t *testing.T, raw string) *big.Int {
	t.Helper()
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		t.Fatalf("invalid fixture amount %q", raw)
	}
	return amount
}

type alwaysPool struct{}

func (alwaysPool) IsPool(crypto.Address) (bool, error) { return true, nil }

// runScenario replays one fixture's steps against a freshly constructed
// backstop for a single pool, returning the tokens paid out by the last
// withdraw step and the final queued-withdrawal entries for the scenario's
// subject user.
func runScenario(t *testing.T, s scenario) (tokensOut *big.Int, q4w []backstop.Q4WEntry) {
	t.Helper()
	led := ledger.New()
	lpToken := crypto.ModuleAddress("backstop/lp-token")
	blnd := crypto.ModuleAddress("asset/BLND")
	tracker := storage.NewTTLTracker(storage.NewMemKV(), storage.SystemClock{})
	bsAddr := crypto.ModuleAddress("backstop")
	bs := backstop.New(bsAddr, tracker, led.Bind(lpToken), led.Bind(blnd), alwaysPool{})
	pool := crypto.ModuleAddress("pool/default")

	seeded := map[string]bool{}
	seedUser := func(user crypto.Address) {
		if !seeded[user.String()] {
			led.Mint(lpToken, user, big.NewInt(1_000_000))
			seeded[user.String()] = true
		}
	}

	for _, step := range s.Steps {
		switch step.Op {
		case "deposit":
			user := crypto.ModuleAddress(step.User)
			seedUser(user)
			if _, err := bs.Deposit(user, pool, bigAmount(t, step.Amount), step.First, step.At); err != nil {
				t.Fatalf("%s: deposit: %v", s.Name, err)
			}
		case "draw":
			to := crypto.ModuleAddress(step.To)
			if err := bs.Draw(pool, to, bigAmount(t, step.Amount)); err != nil {
				t.Fatalf("%s: draw: %v", s.Name, err)
			}
		case "queue_withdrawal":
			user := crypto.ModuleAddress(step.User)
			if _, err := bs.QueueWithdrawal(user, pool, bigAmount(t, step.Amount), step.At); err != nil {
				t.Fatalf("%s: queue_withdrawal: %v", s.Name, err)
			}
		case "dequeue_withdrawal":
			user := crypto.ModuleAddress(step.User)
			if err := bs.DequeueWithdrawal(user, pool, bigAmount(t, step.Amount), step.At); err != nil {
				t.Fatalf("%s: dequeue_withdrawal: %v", s.Name, err)
			}
		case "withdraw":
			user := crypto.ModuleAddress(step.User)
			out, err := bs.Withdraw(user, pool, bigAmount(t, step.Amount), step.At)
			if err != nil {
				t.Fatalf("%s: withdraw: %v", s.Name, err)
			}
			tokensOut = out
		default:
			t.Fatalf("%s: unknown fixture op %q", s.Name, step.Op)
		}
	}

	subject := crypto.ModuleAddress(s.Want.User)
	ub, err := bs.UserBalanceOf(pool, subject)
	if err != nil {
		t.Fatalf("%s: UserBalanceOf: %v", s.Name, err)
	}
	return tokensOut, ub.Q4W
}

func TestBackstopScenarios(t *testing.T) {
	for _, s := range loadScenarios(t) {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			tokensOut, q4w := runScenario(t, s)
			if s.Want.TokensOut != "" {
				if tokensOut == nil || tokensOut.Cmp(bigAmount(t, s.Want.TokensOut)) != 0 {
					t.Fatalf("tokens out = %v, want %s", tokensOut, s.Want.TokensOut)
				}
			}
			if s.Want.Q4WCount > 0 {
				if len(q4w) != s.Want.Q4WCount {
					t.Fatalf("q4w entries = %d, want %d (%v)", len(q4w), s.Want.Q4WCount, q4w)
				}
				if s.Want.Q4WAmount != "" && q4w[0].Amount.Cmp(bigAmount(t, s.Want.Q4WAmount)) != 0 {
					t.Fatalf("q4w[0].Amount = %s, want %s", q4w[0].Amount, s.Want.Q4WAmount)
				}
			}
		})
	}
}

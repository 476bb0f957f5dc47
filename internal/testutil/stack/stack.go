// Package stack wires the account and registration services over an
// in-memory database for tests of the packages built on top of them.
package stack

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	accountrepository "github.com/smallbiznis/internlink/internal/account/repository"
	accountservice "github.com/smallbiznis/internlink/internal/account/service"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type Stack struct {
	DB       *gorm.DB
	Node     *snowflake.Node
	Seed     *testutil.Seeder
	Clock    *clock.FakeClock
	Log      *zap.Logger
	Policy   *config.PolicyHolder
	Gate     *registration.Gate
	Engine   *registration.Engine
	Accounts accountdomain.Service
}

func New(t *testing.T) *Stack {
	t.Helper()

	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	log := zaptest.NewLogger(t)
	policy := config.StaticPolicy(config.DefaultPolicy())
	clk := clock.NewFakeClock(time.Now().UTC().Truncate(time.Second))

	gate, err := registration.NewGate()
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	engine := registration.NewEngine(policy)

	accounts := accountservice.New(accountservice.Params{
		DB:     db,
		Log:    log,
		Repo:   accountrepository.Provide(),
		Engine: engine,
		Policy: policy,
		Clock:  clk,
	})

	return &Stack{
		DB:       db,
		Node:     node,
		Seed:     testutil.NewSeeder(t, db, node),
		Clock:    clk,
		Log:      log,
		Policy:   policy,
		Gate:     gate,
		Engine:   engine,
		Accounts: accounts,
	}
}

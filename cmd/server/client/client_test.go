package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/KirkDiggler/rpg-tracker/internal/combatlog"
	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-tracker/internal/repositories/records"
	"github.com/KirkDiggler/rpg-tracker/internal/testutils"
)

type ClientTestSuite struct {
	suite.Suite
	roller *testutils.SequenceRoller
	server *grpc.Server
	conn   *grpc.ClientConn
	buf    *bytes.Buffer

	origDial func() (grpc.ClientConnInterface, func(), error)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.roller = testutils.NewSequenceRoller()
	log, err := combatlog.New(&combatlog.Config{
		IDs:   idgen.NewSequential("log"),
		Clock: clock.NewFixed(testutils.TestTime),
	})
	s.Require().NoError(err)
	svc, err := encounter.NewOrchestrator(&encounter.Config{
		Repository:  records.NewMemory(),
		Log:         log,
		IDGenerator: idgen.NewSequential("cli"),
		Clock:       clock.NewFixed(testutils.TestTime),
		Roller:      s.roller,
	})
	s.Require().NoError(err)
	handler, err := v1alpha1.NewHandler(&v1alpha1.HandlerConfig{EncounterService: svc})
	s.Require().NoError(err)

	lis := bufconn.Listen(1 << 20)
	s.server = grpc.NewServer()
	v1alpha1.Register(s.server, handler)
	go func() { _ = s.server.Serve(lis) }()

	s.conn, err = grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	s.Require().NoError(err)

	s.origDial = dial
	dial = func() (grpc.ClientConnInterface, func(), error) {
		return s.conn, func() {}, nil
	}
	s.buf = &bytes.Buffer{}
	out = s.buf
}

func (s *ClientTestSuite) TearDownTest() {
	dial = s.origDial
	asJSON = false
	_ = s.conn.Close()
	s.server.Stop()
}

func (s *ClientTestSuite) run(args ...string) string {
	s.buf.Reset()
	ClientCmd.SetArgs(args)
	s.Require().NoError(ClientCmd.Execute())
	return s.buf.String()
}

func (s *ClientTestSuite) createEncounter() string {
	s.run("create", "--name", testutils.TestEncounterName, "--json")
	asJSON = false

	var resp v1alpha1.MutationResponse
	s.Require().NoError(json.Unmarshal(s.buf.Bytes(), &resp))
	s.Require().NotNil(resp.Encounter)
	return resp.Encounter.Encounter.ID
}

func (s *ClientTestSuite) TestEncounterFlow() {
	encID := s.createEncounter()

	text := s.run("start", "--encounter", encID)
	s.Contains(text, "state=active round=1")

	s.roller.Queue(18)
	text = s.run("add", "--encounter", encID, "--name", "Aria", "--kind", "player", "--hp", "20", "--ac", "15", "--init-bonus", "2", "--roll")
	s.Contains(text, "Aria rolled 18 for initiative (total 20)")
	s.Contains(text, "hp=20/20")

	text = s.run("note", "--encounter", encID, "--actor", "DM", "--text", "Ambush!")
	s.Contains(text, "Ambush!")

	text = s.run("log", "--encounter", encID)
	s.Contains(text, "combat_start")
	s.Contains(text, "custom")
}

func (s *ClientTestSuite) TestRate() {
	text := s.run("rate", "--levels", "1,1,1,1", "--xp", "50")
	s.Contains(text, "trivial")
	s.Contains(text, "easy 100")
}

func (s *ClientTestSuite) TestErrorsReachTheCaller() {
	ClientCmd.SetArgs([]string{"next", "--encounter", "missing"})
	ClientCmd.SilenceUsage = true
	err := ClientCmd.Execute()
	s.Require().Error(err)
	s.Contains(err.Error(), "NextTurn failed")
}

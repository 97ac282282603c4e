package main

import (
	"context"
	"net/mail"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	conf := &core.Config{
		AppName:          "Academia",
		SecretKey:        "test-secret",
		DefaultFromEmail: mail.Address{Address: "noreply@academia.test"},
	}
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up DB & repos
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())

	// start CLI
	return &commandLine{
		usrSvc:   user.NewService(usrRepo, conf),
		validate: validate,
	}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	check      func(t *testing.T, err error)
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.check != nil:
				tt.check(t, err)
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var calls [][]string
	orig := migrateFunc
	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version":
		case "up-to", "down-to":
			if len(args) == 0 {
				return errors.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
		default:
			return errors.Errorf("%q: no such command", command)
		}
		calls = append(calls, append([]string{command}, args...))
		return nil
	}
	t.Cleanup(func() { migrateFunc = orig })

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	runCLITests(t, cli, tests)

	assert.Equal(t, [][]string{{"up"}, {"down-to", "1"}, {"status"}}, calls)
}

func isValidationErr(field string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs), "err = %v", err)
		assert.Equal(t, field, verrs[0].Field())
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "taken@test.cd", "taken", user.RoleStudent)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-email", "new@test.cd"}, pwd: testutil.Password, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "new@test.cd", "-role", "admin"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-email", "new@test.cd", "-role", "janitor"}, pwd: testutil.Password, check: isValidationErr("role")},
		{name: "weak password", args: []string{"adduser", "-email", "new@test.cd", "-role", "admin"}, pwd: "password", check: isValidationErr("password")},
		{
			name: "email taken", args: []string{"adduser", "-email", "TAKEN@test.cd", "-role", "admin"}, pwd: testutil.Password,
			check: func(t *testing.T, err error) {
				verr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok, "err = %v", err)
				assert.Equal(t, user.ErrEmailExists, verr.Err)
			},
		},
		{name: "admin", args: []string{"adduser", "-email", "boss@test.cd", "-username", "boss", "-role", "admin"}, pwd: testutil.Password},
	}
	runCLITests(t, cli, tests)

	usr, err := cli.usrSvc.GetByEmail(context.Background(), "boss@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.Equal(t, "boss", usr.Username)
	assert.NoError(t, usr.CheckPassword(testutil.Password))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "awe@test.cd", "awe", user.RoleStudent)
	newPassword := "N3w!Passw0rd"

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: newPassword, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, pwd: newPassword},
	}
	runCLITests(t, cli, tests)

	refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NotEqual(t, usr.PasswordHash, refreshed.PasswordHash)
	assert.NoError(t, refreshed.CheckPassword(newPassword))

	runCLITests(t, cli, []cliTest{
		{name: "weak password", args: []string{"resetpassword", "-email", "awe@test.cd"}, pwd: "123", check: isValidationErr("password")},
	})
}

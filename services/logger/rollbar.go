// Package logsvc holds the core.Logger implementations.
package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

// Extras is attached to a Rollbar item as custom data.
type Extras map[string]interface{}

// RollbarLogger prints to a std logger and reports to Rollbar when enabled.
// args may hold an error, Extras and the acting user (user.User or user.Profile).
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{
		"app":      conf.AppName,
		"dbEngine": conf.Database.Engine,
	})
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

type person struct {
	id, name, email string
}

// split separates the acting person from the args reported to Rollbar.
// Only the first identified person is kept.
func split(args []interface{}) (*person, []interface{}) {
	var p *person
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if p == nil && a.ID != "" {
				p = &person{a.ID, a.Name, a.Email}
			}
		case user.Profile:
			if p == nil && a.ID != "" {
				p = &person{a.ID, a.Name, a.Email}
			}
		case Extras:
			rest = append(rest, map[string]interface{}(a))
		default:
			rest = append(rest, arg)
		}
	}
	return p, rest
}

func (l RollbarLogger) report(level string, msg string, args []interface{}) {
	p, rest := split(args)
	if p != nil {
		rollbar.SetPerson(p.id, p.name, p.email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Println(msg)
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
	if p != nil {
		l.std.Printf("user: %s <%s> (%s)\n", p.name, p.email, p.id)
	}
}

// Debug is printed in debug mode only.
func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.report(rollbar.DEBUG, msg, args)
	}
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

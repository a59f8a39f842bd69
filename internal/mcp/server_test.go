package mcp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/1broseidon/quack/internal/ipc"
)

type fakeDaemon struct {
	calls []string
	err   error
}

func (f *fakeDaemon) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeDaemon) Follow() error          { return f.record("follow") }
func (f *fakeDaemon) Pin() error             { return f.record("pin") }
func (f *fakeDaemon) StartWatch() error      { return f.record("watch") }
func (f *fakeDaemon) CloseOnboarding() error { return f.record("close") }

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{FollowState: "idle", Watchers: 1, UptimeSeconds: 42, DaemonRunning: true}, nil
}

func TestTools_ForwardToDaemon(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d, nil)
	ctx := context.Background()

	tests := []struct {
		tool string
		call func() (CommandOutput, error)
	}{
		{"follow_magic_dot", func() (CommandOutput, error) {
			_, out, err := s.handleFollow(ctx, nil, EmptyInput{})
			return out, err
		}},
		{"pin_magic_dot", func() (CommandOutput, error) {
			_, out, err := s.handlePin(ctx, nil, EmptyInput{})
			return out, err
		}},
		{"start_window_watch", func() (CommandOutput, error) {
			_, out, err := s.handleStartWatch(ctx, nil, EmptyInput{})
			return out, err
		}},
		{"close_onboarding_window", func() (CommandOutput, error) {
			_, out, err := s.handleCloseOnboarding(ctx, nil, EmptyInput{})
			return out, err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			out, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Sent || out.Command != tt.tool {
				t.Fatalf("output = %+v", out)
			}
		})
	}

	want := []string{"follow", "pin", "watch", "close"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
}

func TestTools_DaemonUnavailable(t *testing.T) {
	daemonErr := errors.New("failed to connect to daemon")
	s := NewServer(&fakeDaemon{err: daemonErr}, nil)

	_, out, err := s.handleFollow(context.Background(), nil, EmptyInput{})
	if !errors.Is(err, daemonErr) {
		t.Fatalf("err = %v, want wrapped daemon error", err)
	}
	if out.Sent {
		t.Fatal("output should not report success")
	}

	if _, _, err := s.handleStatus(context.Background(), nil, EmptyInput{}); !errors.Is(err, daemonErr) {
		t.Fatalf("status err = %v", err)
	}
}

func TestStatusTool(t *testing.T) {
	s := NewServer(&fakeDaemon{}, nil)

	_, out, err := s.handleStatus(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	want := StatusOutput{FollowState: "idle", Watchers: 1, UptimeSeconds: 42}
	if out != want {
		t.Fatalf("status = %+v, want %+v", out, want)
	}
}

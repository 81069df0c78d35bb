package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"phone-trivia/internal/app"
	"phone-trivia/internal/domain"
)

var errQuit = errors.New("quit")

// runCommand applies one stdin line to the client. Unknown commands are
// reported, never fatal.
func runCommand(ctx context.Context, client *app.Client, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "answer", "a":
		if len(fields) != 2 {
			return fmt.Errorf("usage: answer <index>")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid answer index %q", fields[1])
		}
		if !client.SelectAnswer(idx) {
			return fmt.Errorf("answer %d not accepted", idx)
		}
		return nil
	case "start":
		return client.StartGame()
	case "next":
		return client.NextQuestion()
	case "end":
		return client.EndGame()
	case "again":
		return client.PlayAgain()
	case "rerender":
		client.Rerender()
		return nil
	case "reload":
		return client.ReloadQuestions(ctx)
	case "questions":
		if len(fields) != 2 {
			return fmt.Errorf("usage: questions <total>")
		}
		total, err := strconv.Atoi(fields[1])
		if err != nil || total <= 0 {
			return fmt.Errorf("invalid question total %q", fields[1])
		}
		settings := client.View().Settings
		settings.TotalQuestions = total
		return client.UpdateSettings(settings)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// readCommands feeds lines from r to the client until ctx ends or quit is
// typed. EOF on r leaves the client running.
func readCommands(ctx context.Context, r io.Reader, client *app.Client, log zerolog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return nil
			}
			err := runCommand(ctx, client, line)
			switch {
			case errors.Is(err, errQuit):
				return errQuit
			case errors.Is(err, domain.ErrNotHost):
				log.Warn().Msg("only the host can do that")
			case err != nil:
				log.Warn().Err(err).Msg("command failed")
			}
		}
	}
}

// logViews writes one line per phase or question change.
func logViews(ctx context.Context, views <-chan app.View, log zerolog.Logger) error {
	last := app.View{QuestionIndex: -2}
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			if v.Phase == last.Phase && v.QuestionIndex == last.QuestionIndex && v.Score == last.Score {
				continue
			}
			last = v
			event := log.Info().
				Str("phase", string(v.Phase)).
				Int("question_index", v.QuestionIndex).
				Int("total_questions", v.TotalQuestions).
				Int("score", v.Score).
				Int("lifetime_score", v.LifetimeScore).
				Bool("host", v.IsHost)
			if v.Question != nil {
				event = event.Str("prompt", v.Question.Prompt)
			}
			if v.Degraded {
				event = event.Bool("degraded", true)
			}
			event.Msg("view")
		}
	}
}

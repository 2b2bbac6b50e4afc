package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const plateFormatHint = "expected 3 letters, 1 digit, 1 letter, 2 digits (e.g. ABC1D23)"

// Shell is the interactive front end. It only talks to a Registry, so the
// ledger stays testable without a console.
type Shell struct {
	registry  Registry
	telemetry *TelemetryProvider
	scanner   *bufio.Scanner
	out       io.Writer
}

func NewShell(registry Registry, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	if in == nil {
		in = strings.NewReader("")
	}
	return &Shell{
		registry:  registry,
		telemetry: telemetry,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	s.println("Parking registry ready. Type 'help' for commands.")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		// Create a new span for each command
		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		keepGoing := s.processCommand(cmdCtx, input)
		cmdSpan.End()

		if !keepGoing {
			break
		}
	}

	span.AddEvent("shell_ended")
}

// Exec runs a single command outside the interactive loop.
func (s *Shell) Exec(ctx context.Context, args ...string) {
	input := strings.TrimSpace(strings.Join(args, " "))
	if input == "" {
		return
	}

	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.process_command",
		trace.WithAttributes(attribute.String("command.input", input)))
	defer span.End()

	s.processCommand(ctx, input)
}

func (s *Shell) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "add", "1":
		s.handleAdd(ctx, parts)
	case "remove", "2":
		s.handleRemove(ctx, parts)
	case "list", "3":
		s.handleList(ctx)
	case "exit", "quit", "4":
		s.println("Bye")
		return false
	case "help":
		s.handleHelp()
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		s.printf("Unknown command: %s\n", parts[0])
	}
	return true
}

func (s *Shell) handleAdd(ctx context.Context, parts []string) {
	if len(parts) > 2 {
		s.println("Usage: add <plate>")
		return
	}

	var raw string
	if len(parts) == 2 {
		raw = parts[1]
	} else {
		var ok bool
		if raw, ok = s.prompt("Enter the plate to park (" + plateFormatHint + "):"); !ok {
			return
		}
	}

	plate, err := s.registry.AddVehicle(ctx, raw)
	switch {
	case err == nil:
		s.printf("Vehicle %s parked\n", plate)
	case errors.Is(err, ErrAlreadyParked):
		s.printf("Vehicle %s is already parked\n", NormalizePlate(raw))
	case errors.Is(err, ErrInvalidPlate):
		s.printf("Plate %s is invalid: %s\n", raw, plateFormatHint)
	default:
		s.printf("Error: %v\n", err)
	}
}

// handleRemove prompts for whatever the command line left out. The ledger
// decides which rejection wins, so an unparsable hour count is passed on as
// negative rather than reported here.
func (s *Shell) handleRemove(ctx context.Context, parts []string) {
	if len(parts) > 3 {
		s.println("Usage: remove <plate> <hours>")
		return
	}

	var raw string
	if len(parts) >= 2 {
		raw = parts[1]
	} else {
		if !s.checkParked(ctx, "") {
			return
		}
		var ok bool
		if raw, ok = s.prompt("Enter the plate to remove:"); !ok {
			return
		}
	}

	var input string
	if len(parts) == 3 {
		input = parts[2]
	} else {
		if !s.checkParked(ctx, raw) {
			return
		}
		var ok bool
		if input, ok = s.prompt("Enter the hours parked:"); !ok {
			return
		}
	}

	hours, err := ParseHours(input)
	if err != nil {
		hours = -1
	}

	receipt, err := s.registry.RemoveVehicle(ctx, raw, hours)
	if err != nil {
		s.reportRemoveError(raw, err)
		return
	}
	s.printf("Vehicle %s removed. Total fee: %s\n", receipt.Plate, receipt.Fee.StringFixed(2))
}

// checkParked reports an empty lot, or a missing plate when raw is set, before
// the shell asks for more input.
func (s *Shell) checkParked(ctx context.Context, raw string) bool {
	plates, err := s.registry.ListVehicles(ctx)
	switch {
	case err != nil:
		s.printf("Error: %v\n", err)
		return false
	case len(plates) == 0:
		s.reportRemoveError(raw, ErrLotEmpty)
		return false
	case raw != "" && indexOf(plates, NormalizePlate(raw)) < 0:
		s.reportRemoveError(raw, ErrNotFound)
		return false
	}
	return true
}

func (s *Shell) reportRemoveError(raw string, err error) {
	switch {
	case errors.Is(err, ErrLotEmpty):
		s.println("Parking lot is empty")
	case errors.Is(err, ErrNotFound):
		s.printf("Vehicle %s is not parked here\n", NormalizePlate(raw))
	case errors.Is(err, ErrInvalidHours):
		s.println("Invalid number of hours")
	default:
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) handleList(ctx context.Context) {
	plates, err := s.registry.ListVehicles(ctx)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}

	if len(plates) == 0 {
		s.println("No vehicles parked")
		return
	}

	s.println("Parked vehicles:")
	for _, plate := range plates {
		s.printf("- %s\n", plate)
	}
}

func (s *Shell) handleHelp() {
	s.println("Commands:")
	s.println("  add [plate]               (1) park a vehicle")
	s.println("  remove [plate] [hours]    (2) remove a vehicle and show the fee")
	s.println("  list                      (3) list parked vehicles")
	s.println("  exit                      (4) leave the shell")
}

// prompt asks for one more line of input. It returns false once input is
// exhausted.
func (s *Shell) prompt(label string) (string, bool) {
	s.println(label)
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

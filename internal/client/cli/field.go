package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mkravets/fieldops/internal/client/models"
)

// parseCoordinates reads lat and lon from the first two args and returns
// them with the remaining args untouched.
func parseCoordinates(args []string) (float64, float64, []string, error) {
	if len(args) < 2 {
		return 0, 0, nil, fmt.Errorf("expected <lat> <lon>")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("invalid latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("invalid longitude %q", args[1])
	}
	return lat, lon, args[2:], nil
}

// ClockIn handles "clockin <lat> <lon> [note...]".
func (a *App) ClockIn(ctx context.Context, args []string) error {
	lat, lon, rest, err := parseCoordinates(args)
	if err != nil {
		printlnFn("Usage: clockin <lat> <lon> [note]")
		return err
	}

	rec, err := a.fieldService.ClockIn(ctx, lat, lon, strings.Join(rest, " "))
	if err != nil {
		printlnFn("Clock-in failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Clocked in (record %d, queued for sync)", rec.ID))
	return nil
}

// ClockOut handles "clockout <lat> <lon> [note...]".
func (a *App) ClockOut(ctx context.Context, args []string) error {
	lat, lon, rest, err := parseCoordinates(args)
	if err != nil {
		printlnFn("Usage: clockout <lat> <lon> [note]")
		return err
	}

	rec, err := a.fieldService.ClockOut(ctx, lat, lon, strings.Join(rest, " "))
	if err != nil {
		printlnFn("Clock-out failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Clocked out (record %d, queued for sync)", rec.ID))
	return nil
}

// TrackLocation handles "loc <lat> <lon> [accuracy]".
func (a *App) TrackLocation(ctx context.Context, args []string) error {
	lat, lon, rest, err := parseCoordinates(args)
	if err != nil {
		printlnFn("Usage: loc <lat> <lon> [accuracy]")
		return err
	}

	accuracy := 0.0
	if len(rest) > 0 {
		accuracy, err = strconv.ParseFloat(rest[0], 64)
		if err != nil {
			printlnFn("Invalid accuracy:", rest[0])
			return err
		}
	}

	loc, err := a.fieldService.TrackLocation(ctx, lat, lon, accuracy)
	if err != nil {
		printlnFn("Location tracking failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Location recorded (fix %d, queued for sync)", loc.ID))
	return nil
}

// CapturePhoto handles "photo <path> [note...]".
func (a *App) CapturePhoto(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: photo <path> [note]")
		return fmt.Errorf("expected <path>")
	}

	photo, err := a.fieldService.CapturePhoto(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		printlnFn("Photo capture failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Photo stored (%s, queued for sync)", photo.ID))
	return nil
}

// SubmitReport handles "report": it prompts for a title, a multi-line body
// and a severity, then files the report.
func (a *App) SubmitReport(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter report title", os.Stdout)
	if err != nil {
		return err
	}

	body, err := GetMultiline(a.reader, "Enter report text", os.Stdout)
	if err != nil {
		return err
	}

	sev, err := getSimpleText(a.reader, "Severity (info/incident/critical, default info)", os.Stdout)
	if err != nil {
		return err
	}
	if sev == "" {
		sev = string(models.SeverityInfo)
	}

	report, err := a.fieldService.SubmitReport(ctx, title, body, models.ReportSeverity(sev))
	if err != nil {
		printlnFn("Report failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Report filed (%d, queued for sync)", report.ID))
	return nil
}

// Command book drives the booking workflow against a running API.
//
//	book [-api URL] [-token JWT] <command> [flags]
//
// Commands: hotels, hotel, book, list, cancel, notifications, token.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/apiclient"
	"hotel_booking/internal/adapters/auth"
	"hotel_booking/internal/booking"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
)

const dateLayout = "2006-01-02"

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, getenv func(string) string) error {
	global := flag.NewFlagSet("book", flag.ContinueOnError)
	global.SetOutput(out)
	api := global.String("api", envOr(getenv, "BOOKING_API", "http://localhost:8080"), "API base URL")
	token := global.String("token", getenv("BOOKING_TOKEN"), "bearer token")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errors.New("usage: book [-api URL] [-token JWT] hotels|hotel|book|list|cancel|notifications|token")
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	if cmd == "token" {
		return issueToken(rest, out)
	}

	client, err := apiclient.New(*api, *token, 5)
	if err != nil {
		return err
	}
	flow := booking.NewFlow(client, client, shared.RealClock{}, "cli")

	switch cmd {
	case "hotels":
		fs := flag.NewFlagSet("hotels", flag.ContinueOnError)
		city := fs.String("city", "", "filter by city")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := flow.LoadHotels(ctx, *city); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCITY\tCATEGORY\tFROM")
		for _, h := range flow.Hotels {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", h.ID, h.Name, h.City, h.Category, price(h.StartingPrice))
		}
		return tw.Flush()

	case "hotel":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		if err := flow.SelectHotel(ctx, id); err != nil {
			return err
		}
		h := flow.Selected
		fmt.Fprintf(out, "%s, %s (%s), season %s\n", h.Name, h.City, h.Category, h.Season)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROOM\tLABEL\tAVAILABLE\tPRICE")
		for _, rt := range flow.RoomTypes() {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", rt.ID, rt.Label, rt.Available, price(rt.CurrentPrice))
		}
		return tw.Flush()

	case "book":
		fs := flag.NewFlagSet("book", flag.ContinueOnError)
		hotel := fs.Int64("hotel", 0, "hotel id")
		room := fs.Int64("room", 0, "room type id (defaults to the first priced one)")
		qty := fs.Int("qty", 1, "number of rooms")
		in := fs.String("in", "", "check-in date, YYYY-MM-DD")
		outDate := fs.String("out", "", "check-out date, YYYY-MM-DD")
		notes := fs.String("notes", "", "special requests")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := flow.SelectHotel(ctx, *hotel); err != nil {
			return err
		}
		if *room != 0 {
			flow.Form.RoomTypeID = *room
		}
		flow.Form.Quantity = *qty
		flow.Form.SpecialRequests = *notes
		if flow.Form.CheckIn, err = parseDate(*in); err != nil {
			return fmt.Errorf("-in: %w", err)
		}
		if flow.Form.CheckOut, err = parseDate(*outDate); err != nil {
			return fmt.Errorf("-out: %w", err)
		}
		c, err := flow.Submit(ctx)
		if err != nil {
			var fe *booking.FieldError
			if errors.As(err, &fe) && fe.Field != "" {
				return fmt.Errorf("%s: %w", fe.Field, err)
			}
			return err
		}
		fmt.Fprintln(out, c.Message)
		fmt.Fprintf(out, "reference %s, total %.2f\n", c.ReferenceNumber, c.TotalAmount)
		return nil

	case "list":
		if err := flow.LoadReservations(ctx); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tREFERENCE\tHOTEL\tCHECK-IN\tCHECK-OUT\tSTATUS\tTOTAL")
		for _, r := range flow.Reservations {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%.2f\n", r.ID, r.ReferenceNumber, r.HotelID,
				r.CheckIn.Format(dateLayout), r.CheckOut.Format(dateLayout), r.Status, r.TotalAmount)
		}
		return tw.Flush()

	case "cancel":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		msg, err := flow.Cancel(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)
		return nil

	case "notifications":
		ns, err := client.ListNotifications(ctx)
		if err != nil {
			return err
		}
		unread, err := client.UnreadCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d unread\n", unread)
		for _, n := range ns {
			mark := " "
			if !n.Read {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %d [%s] %s\n", mark, n.ID, n.Category, n.Message)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// issueToken signs a token locally with JWT_SECRET, for development.
func issueToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.Int64("user", 0, "user id")
	email := fs.String("email", "", "email")
	role := fs.String("role", string(domain.RoleClient), "client|reception|admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := shared.Load()
	if err != nil {
		return err
	}
	r, err := domain.ParseRole(*role)
	if err != nil {
		return err
	}
	tok, err := auth.NewService(cfg.JWTSecret, cfg.JWTTTL, shared.RealClock{}).
		Issue(domain.Principal{UserID: *user, Email: *email, Role: r})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

func argID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

// parseDate leaves an empty value zero so the form reports it as missing.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func price(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

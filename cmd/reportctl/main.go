// Команда reportctl печатает сводку маркетплейса и отчёт по комиссиям.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/repository"
	"github.com/mmeshcher/ysrap-etpe/internal/service"
)

const dateLayout = "2006-01-02"

type options struct {
	databaseURI string
	from        string
	to          string
	partnerID   int64
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("reportctl", flag.ContinueOnError)
	fs.StringVar(&opts.databaseURI, "d", os.Getenv("DATABASE_URI"), "database URI")
	fs.StringVar(&opts.from, "from", "", "period start, YYYY-MM-DD")
	fs.StringVar(&opts.to, "to", "", "period end (inclusive), YYYY-MM-DD")
	fs.Int64Var(&opts.partnerID, "partner", 0, "restrict report to one partner id")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.databaseURI == "" {
		return opts, fmt.Errorf("database URI is required (DATABASE_URI or -d)")
	}
	return opts, nil
}

// commissionFilter переводит флаги в фильтр отчёта. Конец периода включает весь день.
func (o options) commissionFilter() (model.CommissionFilter, error) {
	filter := model.CommissionFilter{PartnerID: o.partnerID}

	if o.from != "" {
		from, err := time.ParseInLocation(dateLayout, o.from, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid -from: %w", err)
		}
		filter.From = &from
	}
	if o.to != "" {
		to, err := time.ParseInLocation(dateLayout, o.to, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid -to: %w", err)
		}
		end := model.EndOfDay(to)
		filter.To = &end
	}
	return filter, nil
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "reportctl: %v\n", err)
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(opts, logger); err != nil {
		logger.Fatal("report failed", zap.Error(err))
	}
}

func run(opts options, logger *zap.Logger) error {
	filter, err := opts.commissionFilter()
	if err != nil {
		return err
	}

	repo, err := repository.NewPostgresRepository(opts.databaseURI)
	if err != nil {
		return fmt.Errorf("database initialization: %w", err)
	}

	svc := service.NewService(repo, nil, logger)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dashboard, err := svc.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	report, err := svc.CommissionReport(ctx, filter)
	if err != nil {
		return fmt.Errorf("commission report: %w", err)
	}

	if err := renderDashboard(os.Stdout, dashboard); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	return renderCommission(os.Stdout, report)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aleksv/spendsync/internal/client/services"
	"github.com/aleksv/spendsync/internal/common"
)

func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, username, password); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			log.Println("User already exists")
		} else {
			log.Println(err.Error())
		}
		return err
	}

	a.userName = username
	fmt.Println("Registered and logged in as", username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, username, password); err != nil {
		log.Println(err.Error())
		return err
	}

	a.userName = username
	fmt.Println("Logged in as", username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.userName = ""
	fmt.Println("Logged out")
	return nil
}

func (a *App) Add(ctx context.Context) error {
	amountStr, err := GetSimpleText(a.reader, "Amount", os.Stdout)
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		log.Println("invalid amount")
		return err
	}

	description, err := GetSimpleText(a.reader, "Description", os.Stdout)
	if err != nil {
		return err
	}
	categoryID, err := GetSimpleText(a.reader, "Category id (empty for none)", os.Stdout)
	if err != nil {
		return err
	}

	settings, err := a.settings.Get(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	e, err := a.expenses.Add(ctx, services.ExpenseParams{
		Amount:      amount,
		Currency:    settings.Currency,
		CategoryID:  categoryID,
		Description: description,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Println("Added expense", e.ID)
	return nil
}

func (a *App) List(ctx context.Context) error {
	items, err := a.expenses.List(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	for _, e := range items {
		marker := " "
		if e.Pending() {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  %.2f %s  %s\n",
			marker, e.ID, e.Date.Format("2006-01-02"), e.Amount, e.Currency, e.Description)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: del <id>")
		return nil
	}
	if err := a.expenses.Delete(ctx, args[0]); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Println("Deleted", args[0])
	return nil
}

func (a *App) Categories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		items, err := a.categories.List(ctx)
		if err != nil {
			log.Println(err.Error())
			return err
		}
		for _, c := range items {
			fmt.Printf("%s  %s\n", c.ID, c.Name)
		}
		return nil
	}

	switch args[0] {
	case "add":
		name, err := GetSimpleText(a.reader, "Category name", os.Stdout)
		if err != nil {
			return err
		}
		c, err := a.categories.Add(ctx, services.CategoryParams{Name: name})
		if err != nil {
			log.Println(err.Error())
			return err
		}
		fmt.Println("Added category", c.ID)
		return nil

	case "del":
		if len(args) < 2 {
			fmt.Println("Usage: cat del <id>")
			return nil
		}
		if err := a.categories.Delete(ctx, args[1]); err != nil {
			if errors.Is(err, common.ErrorCategoryInUse) {
				log.Println("Category is still referenced by expenses")
			} else {
				log.Println(err.Error())
			}
			return err
		}
		fmt.Println("Deleted category", args[1])
		return nil

	default:
		fmt.Println("Usage: cat [add|del <id>]")
		return nil
	}
}

func (a *App) Summary(ctx context.Context, args []string) error {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()

	if len(args) > 0 {
		parsed, err := time.Parse("2006-01", args[0])
		if err != nil {
			fmt.Println("Usage: summary [yyyy-mm]")
			return nil
		}
		year, month = parsed.Year(), parsed.Month()
	}

	sum, err := a.expenses.Summary(ctx, year, month)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Printf("%s .. %s: total %.2f\n",
		sum.From.Format("2006-01-02"), sum.To.AddDate(0, 0, -1).Format("2006-01-02"), sum.Total)
	for _, row := range sum.ByCategory {
		name := row.CategoryID
		if name == "" {
			name = "(uncategorized)"
		}
		fmt.Printf("  %-24s %.2f\n", name, row.Total)
	}
	return nil
}

func (a *App) Settings(ctx context.Context, args []string) error {
	st, err := a.settings.Get(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(args) == 0 {
		fmt.Printf("currency=%s week_start=%d month_start=%d theme=%s decimals=%v\n",
			st.Currency, st.WeekStartDay, st.MonthStartDay, st.Theme, st.ShowDecimals)
		return nil
	}

	if args[0] != "set" {
		fmt.Println("Usage: settings [set]")
		return nil
	}

	currency, err := GetSimpleText(a.reader, "Currency", os.Stdout)
	if err != nil {
		return err
	}
	monthStartStr, err := GetSimpleText(a.reader, "Month start day (1-28)", os.Stdout)
	if err != nil {
		return err
	}
	monthStart, err := strconv.Atoi(monthStartStr)
	if err != nil || monthStart < 1 || monthStart > 28 {
		log.Println("invalid month start day")
		return err
	}

	_, err = a.settings.Update(ctx, services.SettingsParams{
		Currency:      strings.ToUpper(currency),
		WeekStartDay:  st.WeekStartDay,
		MonthStartDay: monthStart,
		Theme:         st.Theme,
		ShowDecimals:  st.ShowDecimals,
	})
	if err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Println("Settings updated")
	return nil
}

func (a *App) Receipt(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: receipt <attach|url> <expense id>")
		return nil
	}

	switch args[0] {
	case "attach":
		path, err := GetSimpleText(a.reader, "Path to receipt file", os.Stdout)
		if err != nil {
			return err
		}
		if err := a.receipts.Attach(ctx, args[1], path); err != nil {
			log.Println(err.Error())
			return err
		}
		fmt.Println("Receipt attached")
		return nil

	case "url":
		url, err := a.receipts.DownloadURL(ctx, args[1])
		if err != nil {
			log.Println(err.Error())
			return err
		}
		fmt.Println(url)
		return nil

	default:
		fmt.Println("Usage: receipt <attach|url> <expense id>")
		return nil
	}
}

func (a *App) Sync(ctx context.Context) error {
	status, err := a.sync.Run(ctx, a.userName)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if status.IsPending {
		fmt.Printf("Sync incomplete: %d item(s) still pending\n", status.PendingSyncItems)
	} else {
		fmt.Println("Sync complete")
	}
	if status.ResolvedConflicts > 0 {
		fmt.Printf("Resolved %d conflict(s)\n", status.ResolvedConflicts)
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.store.LoadStatus(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if st.LastSyncedAt == nil {
		fmt.Println("Never synced")
	} else {
		fmt.Println("Last synced:", st.LastSyncedAt.Format(time.RFC3339))
	}

	items, err := a.expenses.List(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	pending := 0
	for _, e := range items {
		if e.Pending() {
			pending++
		}
	}
	fmt.Printf("%d expense(s), %d pending\n", len(items), pending)
	return nil
}

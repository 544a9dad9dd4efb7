package mcp

import (
	"context"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

type marketCalendarArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type announcementsArgs struct {
	CATypes  []string    `json:"ca_types"`
	Since    string      `json:"since"`
	Until    string      `json:"until"`
	Symbol   null.String `json:"symbol"`
	Cusip    null.String `json:"cusip"`
	DateType null.String `json:"date_type"`
}

const marketCalendarSchema = `{
  "type": "object",
  "properties": {
    "start_date": {"type": "string", "format": "date", "description": "Start date in YYYY-MM-DD format"},
    "end_date": {"type": "string", "format": "date", "description": "End date in YYYY-MM-DD format"}
  },
  "required": ["start_date", "end_date"]
}`

const announcementsSchema = `{
  "type": "object",
  "properties": {
    "ca_types": {"type": "array", "items": {"type": "string", "enum": ["dividend", "merger", "spinoff", "split"]}},
    "since": {"type": "string", "format": "date", "description": "Start date in YYYY-MM-DD format"},
    "until": {"type": "string", "format": "date", "description": "End date in YYYY-MM-DD format"},
    "symbol": {"type": "string"},
    "cusip": {"type": "string"},
    "date_type": {"type": "string", "enum": ["declaration_date", "ex_date", "record_date", "payable_date"]}
  },
  "required": ["ca_types", "since", "until"]
}`

func (ts *toolset) marketInfoTools() []Tool {
	return []Tool{
		typedTool("get_market_clock",
			"Retrieves the current market status and next open and close times.",
			emptySchema, runNoArgs(ts.getMarketClock)),
		typedTool("get_market_calendar",
			"Retrieves the market calendar for a date range.",
			marketCalendarSchema, ts.getMarketCalendar),
		typedTool("get_corporate_announcements",
			"Retrieves corporate action announcements.",
			announcementsSchema, ts.getCorporateAnnouncements),
	}
}

func (ts *toolset) getMarketClock(ctx context.Context) Result {
	clock, err := ts.Trading.GetClock(ctx)
	if err != nil {
		return errorResult("Error fetching market clock: %s", brokerMessage(err))
	}

	var out textBlock
	out.line("Market Status:")
	out.line("-------------")
	out.field("Current Time", formatTime(clock.Timestamp))
	out.field("Is Open", yesNo(clock.IsOpen))
	out.field("Next Open", formatTime(clock.NextOpen))
	out.field("Next Close", formatTime(clock.NextClose))

	return okResult(out.String())
}

func (ts *toolset) getMarketCalendar(ctx context.Context, args marketCalendarArgs) Result {
	start, end := strings.TrimSpace(args.StartDate), strings.TrimSpace(args.EndDate)
	if start == "" {
		return missingArgument("start_date")
	}
	if end == "" {
		return missingArgument("end_date")
	}

	days, err := ts.Trading.GetCalendar(ctx, start, end)
	if err != nil {
		return errorResult("Error fetching market calendar: %s", brokerMessage(err))
	}

	var out textBlock
	out.linef("Market Calendar (%s to %s):", start, end)
	out.line("----------------------------")
	for _, day := range days {
		out.linef("Date: %s, Open: %s, Close: %s", day.Date, day.Open, day.Close)
	}

	return okResult(out.String())
}

func (ts *toolset) getCorporateAnnouncements(ctx context.Context, args announcementsArgs) Result {
	caTypes := make([]string, 0, len(args.CATypes))
	for _, caType := range args.CATypes {
		if caType = strings.ToLower(strings.TrimSpace(caType)); caType != "" {
			caTypes = append(caTypes, caType)
		}
	}
	if len(caTypes) == 0 {
		return missingArgument("ca_types")
	}
	since, until := strings.TrimSpace(args.Since), strings.TrimSpace(args.Until)
	if since == "" {
		return missingArgument("since")
	}
	if until == "" {
		return missingArgument("until")
	}

	announcements, err := ts.Trading.GetAnnouncements(ctx, entity.AnnouncementFilter{
		CATypes:  caTypes,
		Since:    since,
		Until:    until,
		Symbol:   normalizeSymbol(args.Symbol.ValueOrZero()),
		Cusip:    args.Cusip.ValueOrZero(),
		DateType: args.DateType.ValueOrZero(),
	})
	if err != nil {
		return errorResult("Error fetching corporate announcements: %s", brokerMessage(err))
	}

	var out textBlock
	out.line("Corporate Announcements:")
	out.line("----------------------")
	for _, ann := range announcements {
		out.field("ID", ann.ID)
		out.field("Corporate Action ID", ann.CorporateActionID)
		out.field("Type", ann.CAType)
		out.field("Sub Type", ann.CASubType)
		out.field("Initiating Symbol", ann.InitiatingSymbol)
		out.field("Target Symbol", ann.TargetSymbol)
		out.field("Declaration Date", ann.DeclarationDate)
		out.field("Ex Date", ann.ExDate)
		out.field("Record Date", ann.RecordDate)
		out.field("Payable Date", ann.PayableDate)
		out.field("Cash", ann.Cash)
		out.field("Old Rate", ann.OldRate)
		out.field("New Rate", ann.NewRate)
		out.line("----------------------")
	}

	return okResult(out.String())
}

package mcp

import (
	"context"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

type getAllAssetsArgs struct {
	Status     null.String `json:"status"`
	AssetClass null.String `json:"asset_class"`
	Exchange   null.String `json:"exchange"`
	Attributes null.String `json:"attributes"`
}

type createWatchlistArgs struct {
	Name    string     `json:"name"`
	Symbols symbolList `json:"symbols"`
}

type updateWatchlistArgs struct {
	WatchlistID string      `json:"watchlist_id"`
	Name        null.String `json:"name"`
	Symbols     *symbolList `json:"symbols"`
}

const getAllAssetsSchema = `{
  "type": "object",
  "properties": {
    "status": {"type": "string", "description": "Asset status, e.g. active or inactive"},
    "asset_class": {"type": "string", "description": "Asset class, e.g. us_equity or crypto"},
    "exchange": {"type": "string", "description": "Exchange, e.g. NYSE or NASDAQ"},
    "attributes": {"type": "string", "description": "Comma separated asset attributes"}
  }
}`

const createWatchlistSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Name of the watchlist"},
    "symbols": {"type": "array", "items": {"type": "string"}, "description": "Symbols to include"}
  },
  "required": ["name", "symbols"]
}`

const updateWatchlistSchema = `{
  "type": "object",
  "properties": {
    "watchlist_id": {"type": "string", "description": "The id of the watchlist to update"},
    "name": {"type": "string", "description": "New name of the watchlist"},
    "symbols": {"type": "array", "items": {"type": "string"}, "description": "Replacement list of symbols"}
  },
  "required": ["watchlist_id"]
}`

func (ts *toolset) assetTools() []Tool {
	return []Tool{
		typedTool("get_asset_info",
			"Retrieves detailed information about a specific asset.",
			symbolSchema, ts.getAssetInfo),
		typedTool("get_all_assets",
			"Lists available assets with optional filtering.",
			getAllAssetsSchema, ts.getAllAssets),
	}
}

func (ts *toolset) watchlistTools() []Tool {
	return []Tool{
		typedTool("create_watchlist",
			"Creates a new watchlist with the given symbols.",
			createWatchlistSchema, ts.createWatchlist),
		typedTool("get_watchlists",
			"Lists all watchlists.",
			emptySchema, runNoArgs(ts.getWatchlists)),
		typedTool("update_watchlist",
			"Renames a watchlist or replaces its symbols.",
			updateWatchlistSchema, ts.updateWatchlist),
	}
}

func (ts *toolset) getAssetInfo(ctx context.Context, args symbolArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	asset, err := ts.Trading.GetAsset(ctx, symbol)
	if err != nil {
		return errorResult("Error fetching asset information: %s", brokerMessage(err))
	}

	var out textBlock
	out.linef("Asset Information for %s:", symbol)
	out.line(separatorShort)
	out.field("Name", asset.Name)
	out.field("Exchange", asset.Exchange)
	out.field("Class", asset.Class)
	out.field("Status", asset.Status)
	out.field("Tradable", yesNo(asset.Tradable))
	out.field("Marginable", yesNo(asset.Marginable))
	out.field("Shortable", yesNo(asset.Shortable))
	out.field("Easy to Borrow", yesNo(asset.EasyToBorrow))
	out.field("Fractionable", yesNo(asset.Fractionable))

	return okResult(out.String())
}

func (ts *toolset) getAllAssets(ctx context.Context, args getAllAssetsArgs) Result {
	assets, err := ts.Trading.GetAssets(ctx, entity.AssetFilter{
		Status:     args.Status.ValueOrZero(),
		AssetClass: args.AssetClass.ValueOrZero(),
		Exchange:   args.Exchange.ValueOrZero(),
		Attributes: args.Attributes.ValueOrZero(),
	})
	if err != nil {
		return errorResult("Error fetching assets: %s", brokerMessage(err))
	}
	if len(assets) == 0 {
		return okResult("No assets found matching the criteria.")
	}

	var out textBlock
	out.line("Available Assets:")
	out.line(strings.Repeat("-", 30))
	for _, asset := range assets {
		out.field("Symbol", asset.Symbol)
		out.field("Name", asset.Name)
		out.field("Exchange", asset.Exchange)
		out.field("Class", asset.Class)
		out.field("Status", asset.Status)
		out.field("Tradable", yesNo(asset.Tradable))
		out.line(strings.Repeat("-", 30))
	}

	return okResult(out.String())
}

func (ts *toolset) createWatchlist(ctx context.Context, args createWatchlistArgs) Result {
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return missingArgument("name")
	}

	_, err := ts.Trading.CreateWatchlist(ctx, entity.WatchlistRequest{Name: name, Symbols: args.Symbols})
	if err != nil {
		return errorResult("Error creating watchlist: %s", brokerMessage(err))
	}

	return okResult("Watchlist '" + name + "' created successfully with " + itoa(len(args.Symbols)) + " symbols.")
}

func (ts *toolset) getWatchlists(ctx context.Context) Result {
	watchlists, err := ts.Trading.GetWatchlists(ctx)
	if err != nil {
		return errorResult("Error fetching watchlists: %s", brokerMessage(err))
	}

	var out textBlock
	out.line("Watchlists:")
	out.line("------------")
	for _, wl := range watchlists {
		out.field("Name", wl.Name)
		out.field("ID", wl.ID)
		out.field("Created", formatTime(wl.CreatedAt))
		out.field("Updated", formatTime(wl.UpdatedAt))
		out.field("Symbols", strings.Join(wl.Symbols(), ", "))
		out.blank()
	}

	return okResult(out.String())
}

func (ts *toolset) updateWatchlist(ctx context.Context, args updateWatchlistArgs) Result {
	watchlistID := strings.TrimSpace(args.WatchlistID)
	if watchlistID == "" {
		return missingArgument("watchlist_id")
	}

	req := entity.WatchlistRequest{Name: strings.TrimSpace(args.Name.ValueOrZero())}
	if args.Symbols != nil {
		req.Symbols = *args.Symbols
	}

	watchlist, err := ts.Trading.UpdateWatchlist(ctx, watchlistID, req)
	if err != nil {
		return errorResult("Error updating watchlist: %s", brokerMessage(err))
	}

	return okResult("Watchlist updated successfully: " + watchlist.Name)
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	agent "github.com/Protocol-Lattice/agent-server"
)

// MockPrice is the price reported for every ticker.
const MockPrice = 123.45

// StockPrice is the record returned by get_current_stock_price.
type StockPrice struct {
	Ticker   string  `json:"ticker"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// CompanyInfo is the record returned by get_company_info.
type CompanyInfo struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// YFinance is a stand-in for a market data source. It answers every ticker with fixed
// values so agents can declare finance tools without a live dependency.
type YFinance struct {
	logger *log.Logger
}

func NewYFinance(logger *log.Logger) *YFinance {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("initialized mock yfinance tools")
	return &YFinance{logger: logger}
}

func (y *YFinance) CurrentStockPrice(ticker string) StockPrice {
	y.logger.Printf("mock fetching current stock price for %s", ticker)
	return StockPrice{Ticker: ticker, Price: MockPrice, Currency: "USD"}
}

func (y *YFinance) CompanyInfo(ticker string) CompanyInfo {
	y.logger.Printf("mock fetching company info for %s", ticker)
	return CompanyInfo{Ticker: ticker, Name: ticker + " Inc.", Sector: "Technology"}
}

// Tools exposes both lookups as agent tools.
func (y *YFinance) Tools() []agent.Tool {
	return []agent.Tool{&StockPriceTool{source: y}, &CompanyInfoTool{source: y}}
}

func tickerSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{
				"type":        "string",
				"description": "The stock ticker symbol (e.g., NVDA)",
			},
		},
		"required": []any{"ticker"},
	}
}

func tickerArg(req agent.ToolRequest) (string, error) {
	raw, ok := req.Arguments["ticker"]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing 'ticker' argument")
	}
	return strings.TrimSpace(fmt.Sprint(raw)), nil
}

func jsonResponse(v any) (agent.ToolResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return agent.ToolResponse{Content: string(data), Metadata: map[string]string{"source": "mock"}}, nil
}

// StockPriceTool reports the (mock) current price of a ticker.
type StockPriceTool struct {
	source *YFinance
}

func (t *StockPriceTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_current_stock_price",
		Description: "Retrieve the current stock price for a given ticker symbol",
		InputSchema: tickerSchema(),
	}
}

func (t *StockPriceTool) Invoke(_ context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	ticker, err := tickerArg(req)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return jsonResponse(t.source.CurrentStockPrice(ticker))
}

// CompanyInfoTool reports (mock) company details for a ticker.
type CompanyInfoTool struct {
	source *YFinance
}

func (t *CompanyInfoTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "get_company_info",
		Description: "Retrieve company information for a given ticker symbol",
		InputSchema: tickerSchema(),
	}
}

func (t *CompanyInfoTool) Invoke(_ context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	ticker, err := tickerArg(req)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return jsonResponse(t.source.CompanyInfo(ticker))
}

package cgtcalc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultCurrency is assumed for monetary fields that carry no currency.
// The input contract normalizes every amount to the reporting currency
// before trades reach the calculator.
const DefaultCurrency = "GBP"

// amountCmd is a specialized struct to read a monetary amount in two fields.
type amountCmd struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (a amountCmd) Money() Money {
	if a.Currency == "" {
		return M(a.Amount, DefaultCurrency)
	}
	return M(a.Amount, a.Currency)
}

// tradeCmd is a specialized struct for decoding one trade line.
type tradeCmd struct {
	Code       string    `json:"code"`
	Date       Date      `json:"date"`
	Type       string    `json:"type"`
	Quantity   Quantity  `json:"quantity"`
	Price      amountCmd `json:"price"`
	Commission amountCmd `json:"commission"`
	Tax        amountCmd `json:"tax"`
}

// DecodeTrades decodes trades from a stream of JSONL data, one trade per
// line, and returns them grouped by instrument code with each code's trades
// stable-sorted by date. This is the tool's native exchange format; broker
// report parsing lives outside this module.
func DecodeTrades(r io.Reader) (map[string][]Trade, error) {
	byCode := make(map[string][]Trade)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var temp tradeCmd
		if err := json.Unmarshal(lineBytes, &temp); err != nil {
			return nil, fmt.Errorf("could not decode trade line %q: %w", string(lineBytes), err)
		}
		tradeType, err := ParseTradeType(temp.Type)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", string(lineBytes), err)
		}

		trade := Trade{
			Code:       temp.Code,
			Date:       temp.Date,
			Quantity:   temp.Quantity,
			Price:      temp.Price.Money(),
			Commission: temp.Commission.Money(),
			Tax:        temp.Tax.Money(),
			Type:       tradeType,
		}
		if err := trade.Validate(); err != nil {
			return nil, fmt.Errorf("line %q: %w", string(lineBytes), err)
		}
		byCode[trade.Code] = append(byCode[trade.Code], trade)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}

	// Stable sort per code keeps the relative order of same-day trades, which
	// the matching tie-breaks rely on.
	for _, trades := range byCode {
		sort.SliceStable(trades, func(i, j int) bool {
			return trades[i].Date.Before(trades[j].Date)
		})
	}
	return byCode, nil
}

// EncodeTrade marshals a single trade to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeTrade(w io.Writer, t Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write trade: %w", err)
	}
	return nil
}

// EncodeTrades writes the grouped trades in canonical JSONL form: codes in
// sorted order, each code's trades stable-sorted by date.
func EncodeTrades(w io.Writer, tradesByCode map[string][]Trade) error {
	codes := make([]string, 0, len(tradesByCode))
	for code := range tradesByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		trades := append([]Trade(nil), tradesByCode[code]...)
		sort.SliceStable(trades, func(i, j int) bool {
			return trades[i].Date.Before(trades[j].Date)
		})
		for _, t := range trades {
			if err := EncodeTrade(w, t); err != nil {
				return err
			}
		}
	}
	return nil
}

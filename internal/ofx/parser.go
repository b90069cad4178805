// Package ofx converts OFX/QFX statements into categorization requests.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/pigeonhole/internal/model"
)

// Parser reads OFX/QFX files.
type Parser struct {
	currency string
}

// NewParser creates an OFX parser. currency is used when a statement does
// not declare one.
func NewParser(currency string) *Parser {
	if currency == "" {
		currency = "USD"
	}
	return &Parser{currency: currency}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening SGML tags missing their closing bracket at end of line.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes common formatting issues in real-world OFX exports.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Parse reads an OFX/QFX document and returns one categorization request
// per transaction, signed amounts preserved (OFX debits are negative).
func (p *Parser) Parse(reader io.Reader) ([]model.CategorizationRequest, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var requests []model.CategorizationRequest

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		currency := p.statementCurrency(stmt.CurDef.String())
		suffix := accountSuffix(string(stmt.BankAcctFrom.AcctID))
		for _, tx := range stmt.BankTranList.Transactions {
			requests = append(requests, p.convert(tx, currency, suffix))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		currency := p.statementCurrency(stmt.CurDef.String())
		suffix := accountSuffix(string(stmt.CCAcctFrom.AcctID))
		for _, tx := range stmt.BankTranList.Transactions {
			requests = append(requests, p.convert(tx, currency, suffix))
		}
	}

	slog.Info("Parsed OFX file", "transactions", len(requests))

	return requests, nil
}

func (p *Parser) statementCurrency(declared string) string {
	if declared != "" {
		return declared
	}
	return p.currency
}

func (p *Parser) convert(tx ofxgo.Transaction, currency, suffix string) model.CategorizationRequest {
	amount, _ := tx.TrnAmt.Float64()

	txType := model.TypeExpense
	if amount > 0 {
		txType = model.TypeIncome
	}

	return model.CategorizationRequest{
		Description:   string(tx.Name),
		Merchant:      merchantName(tx),
		Amount:        amount,
		Currency:      currency,
		Date:          tx.DtPosted.Time,
		AccountSuffix: suffix,
		MessageID:     string(tx.FiTID),
		Type:          txType,
	}
}

// merchantName extracts the cleanest merchant string the OFX record offers.
func merchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	upper := strings.ToUpper(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " date stamps.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// accountSuffix keeps only the last four characters of an account id; the
// full number never leaves the parser.
func accountSuffix(accountID string) string {
	if len(accountID) <= 4 {
		return accountID
	}
	return accountID[len(accountID)-4:]
}

// Package ofx reads bank and credit card statements in OFX/QFX format into
// ledger transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/budgetbot/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	hundred       = big.NewRat(100, 1)
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of a bare opening tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX document. Amounts are signed minor units, so
// debits are negative. Transactions repeated within the document (same
// account and FITID) are returned once.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]*model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []*model.Transaction
	seen := make(map[string]struct{})
	add := func(list *ofxgo.TransactionList, accountID string) {
		if list == nil {
			return
		}
		for _, ofxTx := range list.Transactions {
			tx, err := p.convertTransaction(ofxTx, accountID)
			if err != nil {
				slog.Warn("Skipping OFX transaction",
					"fitid", ofxTx.FiTID,
					"account", accountID,
					"error", err)
				continue
			}
			key := accountID + "/" + tx.ID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			transactions = append(transactions, tx)
		}
	}

	var bankStmts, ccStmts int
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			add(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			add(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// convertTransaction converts an OFX transaction to our model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) (*model.Transaction, error) {
	amount, err := toMinorUnits(&ofxTx.TrnAmt.Rat)
	if err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		ID:            string(ofxTx.FiTID),
		Date:          ofxTx.DtPosted.Time,
		Payee:         p.extractMerchantName(ofxTx),
		ImportedPayee: strings.TrimSpace(string(ofxTx.Name)),
		Notes:         strings.TrimSpace(string(ofxTx.Memo)),
		AccountID:     accountID,
		Amount:        amount,
	}
	if tx.ID == "" {
		tx.ID = tx.GenerateHash()
	}
	return tx, nil
}

// toMinorUnits converts a decimal amount to cents, rounding half away from zero.
func toMinorUnits(amount *big.Rat) (int64, error) {
	cents := new(big.Rat).Mul(amount, hundred)
	n, err := strconv.ParseInt(cents.FloatString(0), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %s out of range: %w", amount.FloatString(2), err)
	}
	return n, nil
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE is the cleaner name when the bank sends it.
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

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
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " authorization dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// FileSource supplies the transactions of one OFX/QFX file.
type FileSource struct {
	parser *Parser
	path   string
}

// NewFileSource creates a source reading the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{parser: NewParser(), path: path}
}

// Transactions parses the file.
func (s *FileSource) Transactions(ctx context.Context) ([]*model.Transaction, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	return s.parser.ParseFile(ctx, f)
}

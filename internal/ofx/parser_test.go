package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleOFX is a minimal SGML bank statement with a mixed-case SEVERITY,
// which some banks emit and the preprocessor must fix.
const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20260315120000
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<STMTRS>
<CURDEF>PLN
<BANKACCTFROM>
<BANKID>10501038
<ACCTID>ACCT-1
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260301
<DTEND>20260331
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260315
<TRNAMT>-150.00
<FITID>FIT-1
<NAME>BIEDRONKA 123 WARSZAWA
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260320
<TRNAMT>250.00
<FITID>FIT-2
<NAME>PAYMENT
<MEMO>SALARY MARCH
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20260331
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseFileBankStatement(t *testing.T) {
	parser := NewParser()

	txns, err := parser.ParseFile(context.Background(), strings.NewReader(sampleOFX), "stmt-2026-03")
	require.NoError(t, err)
	require.Len(t, txns, 2)

	debit := txns[0]
	assert.Equal(t, "FIT-1", debit.ID)
	assert.Equal(t, "BIEDRONKA 123 WARSZAWA", debit.Name)
	assert.True(t, debit.Amount.Equal(decimal.RequireFromString("-150.00")),
		"debit amount %s, signs must survive parsing", debit.Amount)
	assert.Equal(t, "PLN", debit.Currency)
	assert.Equal(t, "ACCT-1", debit.AccountID)
	assert.Equal(t, "stmt-2026-03", debit.StatementID)
	assert.NotEmpty(t, debit.Hash)
	assert.Equal(t, "2026-03-15", debit.Date.Format("2006-01-02"))

	// Generic NAME falls back to MEMO.
	credit := txns[1]
	assert.Equal(t, "SALARY MARCH", credit.Name)
	assert.True(t, credit.Amount.IsPositive())
}

func TestParseFileInvalid(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseFile(context.Background(), strings.NewReader("not an ofx file"), "stmt-1")
	require.Error(t, err)
}

func TestParseFileCancelledContext(t *testing.T) {
	parser := NewParser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.ParseFile(ctx, strings.NewReader(sampleOFX), "stmt-1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{
			name: "payee preferred over name",
			tx: ofxgo.Transaction{
				Name:  "RAW PROCESSOR STRING",
				Payee: &ofxgo.Payee{Name: "Żabka Polska"},
			},
			want: "Żabka Polska",
		},
		{
			name: "processor prefix stripped",
			tx:   ofxgo.Transaction{Name: "POS PURCHASE ZABKA Z 4411"},
			want: "ZABKA Z 4411",
		},
		{
			name: "date stamp stripped",
			tx:   ofxgo.Transaction{Name: "03/15 ORLEN STACJA 44"},
			want: "ORLEN STACJA 44",
		},
		{
			name: "generic name replaced by memo",
			tx:   ofxgo.Transaction{Name: "DEBIT", Memo: "UBER EATS KRAKOW"},
			want: "UBER EATS KRAKOW",
		},
		{
			name: "specific name keeps priority over memo",
			tx:   ofxgo.Transaction{Name: "ROSSMANN 77", Memo: "CARD 1234"},
			want: "ROSSMANN 77",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanDescription(tt.tx))
		})
	}
}

func TestIsGenericDescription(t *testing.T) {
	assert.True(t, isGenericDescription("DEBIT"))
	assert.True(t, isGenericDescription(" pos "))
	assert.False(t, isGenericDescription("ZABKA"))
	assert.False(t, isGenericDescription("POS PURCHASE ZABKA"))
}

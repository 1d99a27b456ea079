package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var refMu sync.Mutex
var refRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// GenerateReferenceID produces a display reference for withdrawals and
// ledger rows, e.g. QST-83912457201. Uniqueness is enforced by the unique
// column, not here.
func GenerateReferenceID(userID uint) string {
	refMu.Lock()
	defer refMu.Unlock()

	nanoPart := time.Now().UnixNano() % 1000000
	randPart := refRand.Intn(900) + 100
	return fmt.Sprintf("QST-%06d%03d%d", nanoPart, randPart, userID)
}

// MaskAccountNumber hides the middle digits of an account or wallet number.
func MaskAccountNumber(accountNumber string) string {
	accountNumber = strings.TrimSpace(accountNumber)
	if len(accountNumber) <= 6 {
		return accountNumber
	}
	return accountNumber[:4] + "****" + accountNumber[len(accountNumber)-4:]
}

// Package form4 parses SEC Form 4 (and 4/A) ownership-document XML into
// insider transaction records (spec §4.3.1).
package form4

import (
	"encoding/xml"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ownershipDocRe extracts the innermost <ownershipDocument>...</ownershipDocument>
// element from either a standalone XML document or a full SGML submission
// wrapper that embeds it inside an <XML> tag.
var ownershipDocRe = regexp.MustCompile(`(?s)<ownershipDocument[\s\S]*?</ownershipDocument>`)

// Transaction is one classified non-derivative or derivative transaction
// extracted from a Form 4 filing.
type Transaction struct {
	EventType                string
	TransactionType           string // purchase, sale, exercise
	TransactionCode           string
	TransactionDate           string
	TransactionShares         float64
	TransactionPricePerShare  float64
	TotalValue                float64
	HasTotalValue             bool
	AcquiredDisposedCode      string
	SecurityTitle             string
	UnderlyingSecurityTitle   string
	DirectOrIndirectOwnership string
	Derivative                bool
	ReporterName              string
	Relationship              string
	CoReportingOwnerCount     int
}

// transactionCodeClass maps a Form 4 transaction code to the
// (event_type, transaction_type) pair; codes outside this map are ignored.
var transactionCodeClass = map[string][2]string{
	"P": {"insider_buy", "purchase"},
	"S": {"insider_sell", "sale"},
	"M": {"insider_option_exercise", "exercise"},
}

type value struct {
	Value string `xml:"value"`
}

type reportingOwnerRelationship struct {
	IsDirector        string `xml:"isDirector"`
	IsOfficer         string `xml:"isOfficer"`
	IsTenPercentOwner string `xml:"isTenPercentOwner"`
	IsOther           string `xml:"isOther"`
	OfficerTitle      string `xml:"officerTitle"`
	OtherText         string `xml:"otherText"`
}

type reportingOwnerID struct {
	RptOwnerName string `xml:"rptOwnerName"`
}

type reportingOwner struct {
	ID           reportingOwnerID           `xml:"reportingOwnerId"`
	Relationship reportingOwnerRelationship `xml:"reportingOwnerRelationship"`
}

type transactionAmounts struct {
	TransactionCode                 string `xml:"transactionCode"`
	TransactionShares               value  `xml:"transactionShares"`
	TransactionPricePerShare        value  `xml:"transactionPricePerShare"`
	TransactionAcquiredDisposedCode value  `xml:"transactionAcquiredDisposedCode"`
}

type ownershipNature struct {
	DirectOrIndirectOwnership value `xml:"directOrIndirectOwnership"`
}

type underlyingSecurity struct {
	UnderlyingSecurityTitle value `xml:"underlyingSecurityTitle"`
}

type nonDerivativeTransaction struct {
	SecurityTitle      value              `xml:"securityTitle"`
	TransactionDate    value              `xml:"transactionDate"`
	TransactionAmounts transactionAmounts `xml:"transactionAmounts"`
	OwnershipNature    ownershipNature    `xml:"ownershipNature"`
}

type derivativeTransaction struct {
	SecurityTitle      value              `xml:"securityTitle"`
	TransactionDate    value              `xml:"transactionDate"`
	TransactionAmounts transactionAmounts `xml:"transactionAmounts"`
	OwnershipNature    ownershipNature    `xml:"ownershipNature"`
	UnderlyingSecurity underlyingSecurity `xml:"underlyingSecurity"`
}

type ownershipDocument struct {
	XMLName            xml.Name                   `xml:"ownershipDocument"`
	ReportingOwner      []reportingOwner           `xml:"reportingOwner"`
	NonDerivativeTable  struct {
		Transactions []nonDerivativeTransaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
	DerivativeTable struct {
		Transactions []derivativeTransaction `xml:"derivativeTransaction"`
	} `xml:"derivativeTable"`
}

// ExtractOwnershipDocumentXML pulls the innermost <ownershipDocument>
// element out of raw filing text, which may be a bare XML document or a
// full SGML submission wrapper. Returns "" if no match is found.
func ExtractOwnershipDocumentXML(rawText string) string {
	return ownershipDocRe.FindString(rawText)
}

// relationshipString composes the slash-joined relationship label in the
// fixed order officer/director/10% owner/other (spec §4.3.1).
func relationshipString(r reportingOwnerRelationship) string {
	var parts []string
	if isTrue(r.IsOfficer) {
		if r.OfficerTitle != "" {
			parts = append(parts, "officer ("+r.OfficerTitle+")")
		} else {
			parts = append(parts, "officer")
		}
	}
	if isTrue(r.IsDirector) {
		parts = append(parts, "director")
	}
	if isTrue(r.IsTenPercentOwner) {
		parts = append(parts, "10% owner")
	}
	if isTrue(r.IsOther) {
		if r.OtherText != "" {
			parts = append(parts, "other ("+r.OtherText+")")
		} else {
			parts = append(parts, "other")
		}
	}
	return strings.Join(parts, "/")
}

func isTrue(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "1" || s == "true" || s == "yes"
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseTransactions extracts every non-derivative and derivative
// transaction from an ownershipDocument XML payload, classifying each by
// transaction code and computing total_value = shares × price (spec
// §4.3.1). Transactions whose code isn't P/S/M are dropped (spec: "other
// codes are ignored").
func ParseTransactions(ownershipXML string) ([]Transaction, error) {
	var doc ownershipDocument
	if err := xml.Unmarshal([]byte(ownershipXML), &doc); err != nil {
		return nil, err
	}

	reporterName := ""
	relationship := ""
	coOwners := 0
	if len(doc.ReportingOwner) > 0 {
		reporterName = strings.TrimSpace(doc.ReportingOwner[0].ID.RptOwnerName)
		relationship = relationshipString(doc.ReportingOwner[0].Relationship)
		coOwners = len(doc.ReportingOwner) - 1
	}

	var out []Transaction
	for _, t := range doc.NonDerivativeTable.Transactions {
		if txn, ok := buildTransaction(t.TransactionAmounts, t.SecurityTitle.Value, "",
			t.TransactionDate.Value, t.OwnershipNature.DirectOrIndirectOwnership.Value, false); ok {
			txn.ReporterName = reporterName
			txn.Relationship = relationship
			txn.CoReportingOwnerCount = coOwners
			out = append(out, txn)
		}
	}
	for _, t := range doc.DerivativeTable.Transactions {
		if txn, ok := buildTransaction(t.TransactionAmounts, t.SecurityTitle.Value, t.UnderlyingSecurity.UnderlyingSecurityTitle.Value,
			t.TransactionDate.Value, t.OwnershipNature.DirectOrIndirectOwnership.Value, true); ok {
			txn.ReporterName = reporterName
			txn.Relationship = relationship
			txn.CoReportingOwnerCount = coOwners
			out = append(out, txn)
		}
	}
	return out, nil
}

func buildTransaction(amounts transactionAmounts, securityTitle, underlyingTitle, txnDate, ownership string, derivative bool) (Transaction, bool) {
	class, ok := transactionCodeClass[strings.TrimSpace(amounts.TransactionCode)]
	if !ok {
		return Transaction{}, false
	}

	shares, _ := parseFloat(amounts.TransactionShares.Value)
	price, hasPrice := parseFloat(amounts.TransactionPricePerShare.Value)

	txn := Transaction{
		EventType:                 class[0],
		TransactionType:           class[1],
		TransactionCode:           strings.TrimSpace(amounts.TransactionCode),
		TransactionDate:           strings.TrimSpace(txnDate),
		TransactionShares:         shares,
		TransactionPricePerShare:  price,
		AcquiredDisposedCode:      strings.TrimSpace(amounts.TransactionAcquiredDisposedCode.Value),
		SecurityTitle:             strings.TrimSpace(securityTitle),
		UnderlyingSecurityTitle:   strings.TrimSpace(underlyingTitle),
		DirectOrIndirectOwnership: strings.TrimSpace(ownership),
		Derivative:                derivative,
	}
	if hasPrice && shares != 0 {
		txn.TotalValue = math.Round(shares*price*100) / 100
		txn.HasTotalValue = true
	}
	return txn, true
}

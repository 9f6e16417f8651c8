package form4

import "testing"

const sampleOwnershipDoc = `<ownershipDocument>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Dana Morgan</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>1</isDirector>
      <isOfficer>1</isOfficer>
      <isTenPercentOwner>0</isTenPercentOwner>
      <isOther>0</isOther>
      <officerTitle>CEO</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Ryan Cole</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>0</isDirector>
      <isOfficer>0</isOfficer>
      <isTenPercentOwner>1</isTenPercentOwner>
      <isOther>0</isOther>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-06-01</value></transactionDate>
      <transactionAmounts>
        <transactionCode>P</transactionCode>
        <transactionShares><value>1000</value></transactionShares>
        <transactionPricePerShare><value>12.5</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
      <ownershipNature>
        <directOrIndirectOwnership><value>D</value></directOrIndirectOwnership>
      </ownershipNature>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-06-02</value></transactionDate>
      <transactionAmounts>
        <transactionCode>J</transactionCode>
        <transactionShares><value>10</value></transactionShares>
        <transactionPricePerShare><value>1</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`

func TestExtractOwnershipDocumentXML_FromSGMLWrapper(t *testing.T) {
	wrapped := "<SEC-DOCUMENT>\n<TYPE>4\n<SEQUENCE>2\n<XML>\n" + sampleOwnershipDoc + "\n</XML>\n</SEC-DOCUMENT>"
	got := ExtractOwnershipDocumentXML(wrapped)
	if got == "" {
		t.Fatalf("expected to extract ownershipDocument from SGML wrapper")
	}
}

func TestParseTransactions_ClassifiesPurchaseAndIgnoresUnknownCode(t *testing.T) {
	txns, err := ParseTransactions(sampleOwnershipDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected exactly one recognized transaction (code J ignored), got %d", len(txns))
	}
	txn := txns[0]
	if txn.EventType != "insider_buy" || txn.TransactionType != "purchase" {
		t.Errorf("expected insider_buy/purchase, got %q/%q", txn.EventType, txn.TransactionType)
	}
	if !txn.HasTotalValue || txn.TotalValue != 12500.0 {
		t.Errorf("expected total_value=12500.0, got %v (has=%v)", txn.TotalValue, txn.HasTotalValue)
	}
	if txn.ReporterName != "Dana Morgan" {
		t.Errorf("expected first reporting owner name, got %q", txn.ReporterName)
	}
	if txn.Relationship != "officer (CEO)/director" {
		t.Errorf("expected officer-then-director relationship order, got %q", txn.Relationship)
	}
	if txn.CoReportingOwnerCount != 1 {
		t.Errorf("expected co_reporting_owner_count=1, got %d", txn.CoReportingOwnerCount)
	}
}

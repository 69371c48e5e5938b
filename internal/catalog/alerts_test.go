package catalog

import "testing"

func TestAlertsClassification(t *testing.T) {
	products := []Product{
		{ID: "ok", Stock: 10, MinStock: 3},
		{ID: "low", Stock: 3, MinStock: 3},
		{ID: "out", Stock: 0, MinStock: 3},
	}

	alerts := Alerts(products)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %v", alerts)
	}
	if alerts[0].Product.ID != "low" || alerts[0].Type != AlertLowStock {
		t.Fatalf("unexpected first alert: %+v", alerts[0])
	}
	if alerts[1].Product.ID != "out" || alerts[1].Type != AlertOutOfStock {
		t.Fatalf("unexpected second alert: %+v", alerts[1])
	}
}

func TestHasTempID(t *testing.T) {
	if !HasTempID(TempIDPrefix + "1700000000000_ab12cd34") {
		t.Fatal("expected temp id to be recognized")
	}
	if HasTempID("a3f2c4d1") {
		t.Fatal("server ids are not temp ids")
	}
}

package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Type
	}{
		{"What is the average salary by department?", TypeSQL},
		{"List all employees hired in 2023", TypeSQL},
		{"HOW MANY EMPLOYEES?", TypeSQL},
		{"What is Alice's GitHub link?", TypeDocument},
		{"Show me the contract terms", TypeDocument},
		{"Which skills are on the resume?", TypeDocument},
		{"Employees with Python skills", TypeHybrid},
		{"Tell me something interesting", TypeHybrid},
		{"", TypeHybrid},
		{"discount codes", TypeSQL},
	}
	for _, tc := range tests {
		if got := Classify(tc.text); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestTypeBranches(t *testing.T) {
	if !TypeSQL.WantsDatabase() || TypeSQL.WantsDocuments() {
		t.Fatal("SQL should only want the database")
	}
	if TypeDocument.WantsDatabase() || !TypeDocument.WantsDocuments() {
		t.Fatal("DOCUMENT should only want documents")
	}
	if !TypeHybrid.WantsDatabase() || !TypeHybrid.WantsDocuments() {
		t.Fatal("HYBRID should want both")
	}
}

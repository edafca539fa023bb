package smoothing

import "testing"

func TestAssign_Empty(t *testing.T) {
	if result := assign(nil); result != nil {
		t.Errorf("expected nil for empty cost matrix, got %v", result)
	}
}

func TestAssign_NoColumns(t *testing.T) {
	result := assign([][]float64{{}, {}})
	if len(result) != 2 || result[0] != -1 || result[1] != -1 {
		t.Errorf("expected [-1 -1], got %v", result)
	}
}

func TestAssign_SquareOptimal(t *testing.T) {
	// Greedy picks row1→col0 first and ends at 15; the optimum is 10.
	cost := [][]float64{
		{1, 2, 3},
		{4, 4, 6},
		{9, 8, 5},
	}
	result := assign(cost)

	if len(result) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(result))
	}

	total := 0.0
	for i, j := range result {
		if j < 0 {
			t.Errorf("row %d unassigned", i)
			continue
		}
		total += cost[i][j]
	}
	if total != 10 {
		t.Errorf("expected optimal cost 10, got %v (assignments: %v)", total, result)
	}
}

func TestAssign_Rectangular(t *testing.T) {
	t.Run("more rows than columns", func(t *testing.T) {
		cost := [][]float64{
			{5},
			{1},
		}
		result := assign(cost)
		if result[0] != -1 || result[1] != 0 {
			t.Errorf("expected [-1 0], got %v", result)
		}
	})

	t.Run("more columns than rows", func(t *testing.T) {
		cost := [][]float64{
			{7, 2},
		}
		result := assign(cost)
		if result[0] != 1 {
			t.Errorf("expected [1], got %v", result)
		}
	})
}

func TestAssign_Forbidden(t *testing.T) {
	cost := [][]float64{
		{1, 2},
		{forbidden, forbidden},
	}
	result := assign(cost)

	if result[0] < 0 {
		t.Errorf("row 0 should be assigned, got %v", result)
	}
	if result[1] != -1 {
		t.Errorf("row 1 should be unassigned, got %v", result)
	}
}

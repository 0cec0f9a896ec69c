package index

import "testing"

func TestOkapiIDFRewardsRareTerms(t *testing.T) {
	rare, common := defaultOkapi.idf(100, 1), defaultOkapi.idf(100, 90)
	if rare <= common {
		t.Errorf("idf(rare)=%v should exceed idf(common)=%v", rare, common)
	}
	if everywhere := defaultOkapi.idf(10, 10); everywhere <= 0 {
		t.Errorf("idf of a term in every doc = %v, want > 0", everywhere)
	}
}

func TestOkapiTF(t *testing.T) {
	if got := defaultOkapi.tf(1, 3, 0); got != 0 {
		t.Errorf("empty corpus field: tf = %v", got)
	}
	short, long := defaultOkapi.tf(1, 2, 4), defaultOkapi.tf(1, 8, 4)
	if short <= long {
		t.Errorf("short field %v should outscore long field %v", short, long)
	}
	if sat := defaultOkapi.tf(1000, 4, 4); sat > defaultOkapi.k1+1 {
		t.Errorf("tf should saturate below k1+1, got %v", sat)
	}
}

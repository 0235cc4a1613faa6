package httpsaudit

import (
	"fmt"
	"testing"
)

const benchRulesets = 1000

func benchCollection(b *testing.B) *Collection {
	rulesets := make([]string, 0, benchRulesets)
	for i := 0; i < benchRulesets; i++ {
		rulesets = append(rulesets, fmt.Sprintf(`<ruleset name="Site%d">
			<target host="site%d.com"/>
			<target host="*.site%d.com"/>
			<exclusion pattern="^http://site%d\.com/plain/"/>
			<rule from="^http://(www\.)?site%d\.com/" to="https://$1site%d.com/"/>
		</ruleset>`, i, i, i, i, i, i))
	}
	rulesets = append(rulesets, `<ruleset name="Google"><target host="*.google.*"/><rule from="^http:" to="https:"/></ruleset>`)
	return newCollection(b, rulesets...)
}

func BenchmarkApply(b *testing.B) {
	c := benchCollection(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Apply(fmt.Sprintf("http://www.site%d.com/page", i%benchRulesets))
	}
}

func BenchmarkApplyParallel(b *testing.B) {
	c := benchCollection(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Apply(fmt.Sprintf("http://site%d.com/page", i%benchRulesets))
			i++
		}
	})
}

func BenchmarkApplyMiss(b *testing.B) {
	c := benchCollection(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Apply("http://unknown.example.org/page")
	}
}

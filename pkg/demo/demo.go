// Package demo holds a small self-test suite that exercises
// every predicate. The CLI runs it to show what reports look
// like.
package demo

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"time"

	"digital.vasic.harness/pkg/matcher"
	"digital.vasic.harness/pkg/suite"
)

// Register adds the demo groups to s. With failing set, a second
// group of deliberately broken cases shows every failure shape.
func Register(s *suite.Suite, failing bool) {
	s.Describe("This is a describe", passingCases)
	if failing {
		s.Describe("These are broken", failingCases)
	}
}

func passingCases(g *suite.Group) {
	g.It("Should be defined", func(context.Context) error {
		return matcher.Expect(map[string]any{}).ToBeDefined()
	})

	g.It("Should be NaN", func(context.Context) error {
		n, err := strconv.ParseFloat("aze", 64)
		if err != nil {
			n = math.NaN()
		}
		return matcher.Expect(n).ToBeNaN()
	})

	g.It("Should be a time", func(context.Context) error {
		return matcher.Expect(time.Now()).
			ToBeInstanceOf(matcher.TypeOf[time.Time]())
	})

	g.It("Should match hello", func(context.Context) error {
		return matcher.Expect("hello world").ToMatch("hello")
	})

	g.It("Should match /hello/i", func(context.Context) error {
		return matcher.Expect("hello").ToMatch(regexp.MustCompile("(?i)HellO"))
	})

	g.It("Should have property", func(context.Context) error {
		return matcher.Expect(map[string]string{"hello": "world", "how": "are"}).
			ToHaveProperty("hello")
	})

	g.It("Should have length 3", func(context.Context) error {
		return matcher.Expect("hey").ToHaveLength(3)
	})

	g.It("Should contain you", func(context.Context) error {
		return matcher.Expect("hey you").ToContain("you")
	})

	g.It("Should contain item hey", func(context.Context) error {
		return matcher.Expect([]string{"hello", "hi", "hey"}).ToContain("hey")
	})

	g.Describe("throwing", func(g *suite.Group) {
		boom := func() { panic(errors.New("error")) }

		g.It("Should throw", func(context.Context) error {
			return matcher.Expect(boom).ToThrow()
		})

		g.It("Should throw with error", func(context.Context) error {
			return matcher.Expect(boom).ToThrow("error")
		})

		g.It("Should throw with regex error", func(context.Context) error {
			return matcher.Expect(boom).ToThrow(regexp.MustCompile("error"))
		})

		g.It("Should throw with Error", func(context.Context) error {
			return matcher.Expect(boom).ToThrow(errors.New("error"))
		})
	})

	g.Describe("comparing", func(g *suite.Group) {
		g.It("Should be equal", func(context.Context) error {
			return matcher.Expect([]int{1, 2}).ToEqual([]int{1, 2})
		})

		g.It("Should be greater", func(context.Context) error {
			return matcher.Expect(3.5).ToBeGreaterThan(3)
		})

		g.It("Should be less or equal", func(context.Context) error {
			return matcher.Expect(3).ToBeLessThanOrEqual(3)
		})
	})
}

func failingCases(g *suite.Group) {
	g.It("Should be four", func(context.Context) error {
		return matcher.Expect(2 + 1).ToBe(4)
	})

	g.It("Should equal the struct", func(context.Context) error {
		type point struct{ X, Y int }
		return matcher.Expect(point{1, 2}).ToEqual(point{2, 1})
	})

	g.It("Should be truthy", func(context.Context) error {
		return matcher.Expect("").ToBeTruthy()
	})

	g.It("Should have property", func(context.Context) error {
		return matcher.Expect(map[string]int{"a": 1}).ToHaveProperty("b")
	})

	g.It("Should throw", func(context.Context) error {
		return matcher.Expect(func() {}).ToThrow()
	})

	g.It("Should not misuse a predicate", func(context.Context) error {
		return matcher.Expect(42).ToHaveLength(2)
	})

	g.It("Should not panic", func(context.Context) error {
		var m map[string]int
		m["x"] = 1
		return nil
	})

	g.It("Should finish in time", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, suite.CaseTimeout(50*time.Millisecond))

	g.Skip("Should be skipped", nil)
}

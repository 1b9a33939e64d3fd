package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courthive/dayplan/internal/tournament"
)

func TestCheckDependenciesScheduled(t *testing.T) {
	a := feeds(singles("a", "d1", 1, 1, "p1", "p2"), "b")
	b := singles("b", "d1", 2, 1, "", "p3")
	sc := newTestContext(baseRequest(), individuals("p1", "p2", "p3"), nil, &a, &b)

	ok, remaining := sc.checkDependenciesScheduled(&b)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, remaining)

	ok, remaining = sc.checkDependenciesScheduled(&a)
	assert.True(t, ok, "matchUp without feeders is immediately eligible")
	assert.Empty(t, remaining)

	sc.scheduleTimes["a"] = "09:00"
	ok, _ = sc.checkDependenciesScheduled(&b)
	assert.True(t, ok)

	t.Run("dependencies outside the batch are ignored", func(t *testing.T) {
		sc := newTestContext(baseRequest(), individuals("p1", "p2", "p3"), nil, &a, &b)
		delete(sc.batch, "a")
		ok, _ := sc.checkDependenciesScheduled(&b)
		assert.True(t, ok)
	})
}

func TestCheckRecoveryTime(t *testing.T) {
	people := individuals("p1", "p2", "p3", "p4", "p5")

	t.Run("assigned individuals cannot overlap their bookings", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		c := singles("c", "d1", 1, 2, "p1", "p3")
		sc := newTestContext(baseRequest(), people, nil, &a, &c)
		sc.updateTimeAfterRecovery(&a, "09:00")

		assert.Equal(t, "10:30", sc.profiles["p1"].TimeAfterRecovery)
		assert.False(t, sc.checkRecoveryTime(&c, "09:30"))
		assert.False(t, sc.checkRecoveryTime(&c, "10:00"))
		assert.True(t, sc.checkRecoveryTime(&c, "10:30"), "touching intervals do not overlap")
	})

	t.Run("earlier slot than an existing booking", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		c := singles("c", "d1", 1, 2, "p1", "p3")
		sc := newTestContext(baseRequest(), people, nil, &a, &c)
		sc.updateTimeAfterRecovery(&a, "14:00")

		assert.True(t, sc.checkRecoveryTime(&c, "09:00"))
		assert.False(t, sc.checkRecoveryTime(&c, "13:00"))
	})

	t.Run("not-before floor from a placed feeder", func(t *testing.T) {
		a := feeds(singles("a", "d1", 1, 1, "p1", "p2"), "b")
		b := singles("b", "d1", 2, 1, "", "p3")
		sc := newTestContext(baseRequest(), people, nil, &a, &b)
		sc.updateTimeAfterRecovery(&a, "09:00")

		assert.Equal(t, "10:30", sc.notBefore["b"])
		assert.False(t, sc.checkRecoveryTime(&b, "10:00"))
		assert.True(t, sc.checkRecoveryTime(&b, "10:30"))
	})

	t.Run("assigned individual against a potential booking in another draw", func(t *testing.T) {
		a := feeds(singles("a", "d1", 1, 1, "p1", "p2"), "b")
		b := singles("b", "d1", 2, 1)
		x := singles("x", "d2", 1, 1, "p1", "p4")
		y := singles("y", "d1", 1, 2, "p1", "p5")
		sc := newTestContext(baseRequest(), people, nil, &a, &b, &x, &y)
		sc.updateTimeAfterRecovery(&b, "11:00")

		require.Len(t, sc.profiles["p1"].PotentialBookings["d1"], 1)
		assert.Equal(t, "12:30", sc.profiles["p1"].PotentialRecovery["d1"])
		assert.False(t, sc.checkRecoveryTime(&x, "11:30"))
		assert.True(t, sc.checkRecoveryTime(&x, "12:30"))
		assert.True(t, sc.checkRecoveryTime(&y, "11:30"), "same draw potential bookings are ignored")
	})

	t.Run("potential individual against an actual booking in another draw", func(t *testing.T) {
		a := feeds(singles("a", "d1", 1, 1, "p1", "p2"), "b")
		b := singles("b", "d1", 2, 1)
		w := singles("w", "d2", 1, 1, "p1", "p5")
		sc := newTestContext(baseRequest(), people, nil, &a, &b, &w)
		sc.updateTimeAfterRecovery(&w, "09:00")

		assert.Equal(t, []string{"p1", "p2"}, sc.potentialIDs(&b))
		assert.False(t, sc.checkRecoveryTime(&b, "09:30"))
		assert.True(t, sc.checkRecoveryTime(&b, "10:30"))
	})

	t.Run("explicit end time drives recovery", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		a.Schedule.EndTime = "09:40"
		c := singles("c", "d2", 1, 1, "p1", "p3")
		sc := newTestContext(baseRequest(), people, nil, &a, &c)
		sc.updateTimeAfterRecovery(&a, "09:00")

		assert.Equal(t, "10:10", sc.profiles["p1"].TimeAfterRecovery)
		assert.True(t, sc.checkRecoveryTime(&c, "10:10"))
	})

	t.Run("per-matchUp recovery override", func(t *testing.T) {
		req := baseRequest()
		req.MatchUpRecoveryMinutes = map[string]int{"a": 0}
		a := singles("a", "d1", 1, 1, "p1", "p2")
		c := singles("c", "d1", 1, 2, "p1", "p3")
		sc := newTestContext(req, people, nil, &a, &c)
		sc.updateTimeAfterRecovery(&a, "09:00")

		assert.True(t, sc.checkRecoveryTime(&c, "10:00"))
	})
}

func TestCheckDailyLimits(t *testing.T) {
	people := individuals("p1", "p2", "p3")

	t.Run("type limit", func(t *testing.T) {
		req := baseRequest()
		req.MatchUpDailyLimits = map[string]int{tournament.Singles: 1}
		a := singles("a", "d1", 1, 1, "p1", "p2")
		c := singles("c", "d1", 1, 2, "p1", "p3")
		sc := newTestContext(req, people, nil, &a, &c)

		atLimit, relevant := sc.checkDailyLimits(&a)
		require.Empty(t, atLimit)
		sc.reserve(&a, relevant)

		atLimit, relevant = sc.checkDailyLimits(&c)
		assert.Equal(t, []string{"p1"}, atLimit)
		assert.Equal(t, []string{"p1", "p3"}, relevant)
	})

	t.Run("total limit counts every type", func(t *testing.T) {
		req := baseRequest()
		req.MatchUpDailyLimits = map[string]int{TotalKey: 1}
		d := doubles("d", "dd", 1, 1, "pair1", "pair2")
		c := singles("c", "d1", 1, 1, "p1", "p3")
		participants := append(individuals("p1", "p2", "p3", "p4"),
			pair("pair1", "p1", "p2"), pair("pair2", "p3", "p4"))
		sc := newTestContext(req, participants, nil, &d, &c)

		_, relevant := sc.checkDailyLimits(&d)
		sc.reserve(&d, relevant)
		assert.Equal(t, 1, sc.profiles["p1"].Counters[tournament.Doubles])

		atLimit, _ := sc.checkDailyLimits(&c)
		assert.Equal(t, []string{"p1", "p3"}, atLimit)
	})

	t.Run("no limits configured", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		sc := newTestContext(baseRequest(), people, nil, &a)
		sc.reserve(&a, []string{"p1"})
		sc.reserve(&a, []string{"p1"})
		atLimit, _ := sc.checkDailyLimits(&a)
		assert.Empty(t, atLimit)
	})

	t.Run("projected individuals count once", func(t *testing.T) {
		a := feeds(singles("a", "d1", 1, 1, "p1", "p2"), "b")
		b := singles("b", "d1", 2, 1, "p1")
		sc := newTestContext(baseRequest(), people, nil, &a, &b)
		sc.projectParticipants(&a)

		_, relevant := sc.checkDailyLimits(&b)
		assert.Equal(t, []string{"p1", "p2"}, relevant)
	})

	t.Run("losers of a completed feeder are not recounted", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		a.WinnerMatchUpID = "b"
		a.LoserMatchUpID = "l"
		a.WinningSide = 1
		b := singles("b", "d1", 2, 1)
		l := singles("l", "d1", 2, 2)
		sc := newTestContext(baseRequest(), people, nil, &a, &b, &l)
		sc.projectParticipants(&a)

		_, relevant := sc.checkDailyLimits(&b)
		assert.Equal(t, []string{"p1"}, relevant)
		_, relevant = sc.checkDailyLimits(&l)
		assert.Equal(t, []string{"p2"}, relevant)
		assert.Equal(t, []string{"p1"}, sc.potentialIDs(&b), "dependency participants also drop the loser")
	})

	t.Run("release mirrors reserve", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		sc := newTestContext(baseRequest(), people, nil, &a)
		sc.reserve(&a, []string{"p1", "p2"})
		sc.release(&a, []string{"p1", "p2"})
		sc.release(&a, []string{"p1", "p3"})

		assert.Equal(t, 0, sc.profiles["p1"].Counters[TotalKey])
		assert.Equal(t, 0, sc.profiles["p1"].Counters[tournament.Singles])
		assert.Nil(t, sc.profiles.lookup("p3"))
	})
}

func TestCheckRequestConflicts(t *testing.T) {
	people := individuals("p1", "p2", "p3")
	requests := map[string][]tournament.PersonRequest{
		"person-p1": {
			{RequestID: "r1", RequestType: tournament.DoNotSchedule, Date: testDate, StartTime: "10:00", EndTime: "11:00"},
			{RequestID: "r2", RequestType: tournament.DoNotSchedule, Date: testDate, StartTime: "10:30", EndTime: "12:00"},
			{RequestID: "r3", RequestType: tournament.DoNotSchedule, Date: "2026-06-02", StartTime: "08:00", EndTime: "20:00"},
			{RequestID: "r4", RequestType: "PREFERENCE", Date: testDate, StartTime: "08:00", EndTime: "20:00"},
		},
	}

	t.Run("all intersecting requests are reported", func(t *testing.T) {
		a := singles("a", "d1", 1, 1, "p1", "p2")
		sc := newTestContext(baseRequest(), people, requests, &a)

		conflicts := sc.checkRequestConflicts(&a, "09:30")
		require.Len(t, conflicts, 1)
		assert.Equal(t, "r1", conflicts[0].RequestID)
		assert.Equal(t, "person-p1", conflicts[0].PersonID)
		assert.False(t, conflicts[0].Potential)

		conflicts = sc.checkRequestConflicts(&a, "10:00")
		require.Len(t, conflicts, 2)
		assert.Equal(t, "r2", conflicts[1].RequestID)

		assert.Empty(t, sc.checkRequestConflicts(&a, "09:00"), "ending as the request starts is fine")
		assert.Empty(t, sc.checkRequestConflicts(&a, "12:00"))
	})

	t.Run("potential individuals only when enabled", func(t *testing.T) {
		a := feeds(singles("a", "d1", 1, 1, "p1", "p2"), "b")
		b := singles("b", "d1", 2, 1, "", "p3")

		sc := newTestContext(baseRequest(), people, requests, &a, &b)
		assert.Empty(t, sc.checkRequestConflicts(&b, "10:00"))

		req := baseRequest()
		req.CheckPotentialRequestConflicts = true
		sc = newTestContext(req, people, requests, &a, &b)
		conflicts := sc.checkRequestConflicts(&b, "10:00")
		require.Len(t, conflicts, 2)
		assert.True(t, conflicts[0].Potential)
		assert.Equal(t, "p1", conflicts[0].ParticipantID)
	})

	t.Run("merge keeps one entry per request and time", func(t *testing.T) {
		c1 := RequestConflict{RequestID: "r1", ScheduleTime: "10:00"}
		c2 := RequestConflict{RequestID: "r1", ScheduleTime: "10:30"}
		merged := mergeConflicts([]RequestConflict{c1}, []RequestConflict{c1, c2})
		assert.Len(t, merged, 2)
	})
}

func TestProjector(t *testing.T) {
	people := individuals("p1", "p2", "p3", "p4")
	qf1 := feeds(singles("qf1", "d1", 1, 1, "p1", "p2"), "sf")
	qf2 := feeds(singles("qf2", "d1", 1, 2, "p3", "p4"), "sf")
	sf := singles("sf", "d1", 2, 1)

	t.Run("potentials accumulate across feeders", func(t *testing.T) {
		sc := newTestContext(baseRequest(), people, nil, &qf1, &qf2, &sf)
		sc.projectParticipants(&qf1)
		sc.projectParticipants(&qf2)
		sc.projectParticipants(&qf1)

		assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, sc.potentials["sf"])
	})

	t.Run("not-before floor is never lowered", func(t *testing.T) {
		sc := newTestContext(baseRequest(), people, nil, &qf1, &qf2, &sf)
		sc.updateTimeAfterRecovery(&qf2, "11:00")
		sc.updateTimeAfterRecovery(&qf1, "09:00")

		assert.Equal(t, "12:30", sc.notBefore["sf"])
	})

	t.Run("downstream potentials get potential bookings", func(t *testing.T) {
		sc := newTestContext(baseRequest(), people, nil, &qf1, &qf2, &sf)
		sc.updateTimeAfterRecovery(&sf, "13:00")

		for _, id := range []string{"p1", "p2", "p3", "p4"} {
			p := sc.profiles[id]
			require.NotNil(t, p, id)
			assert.Empty(t, p.Bookings, id)
			assert.Len(t, p.PotentialBookings["d1"], 1, id)
		}
	})
}

package progress

import (
	"github.com/coursehub/lms/core/course"
)

// watchedCount counts the course's current lectures that p has completed.
func watchedCount(p Progress, c course.Course) int {
	done := make(map[string]struct{}, len(p.LecturesCompleted))
	for _, id := range p.LecturesCompleted {
		done[id] = struct{}{}
	}
	var n int
	for _, l := range c.Lectures {
		if _, ok := done[l.ID]; ok {
			n++
		}
	}
	return n
}

func allLecturesWatched(p Progress, c course.Course) bool {
	return watchedCount(p, c) == c.NumberOfLectures()
}

// BestScore returns the highest score recorded for quizID.
func BestScore(p Progress, quizID string) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, s := range p.QuizScores {
		if s.QuizID != quizID {
			continue
		}
		if !found || s.Score > best {
			best = s.Score
			found = true
		}
	}
	return best, found
}

// eligible reports whether p satisfies the completion policy of c:
// every lecture watched and, when c has a quiz bank, a final assignment score of at least passThreshold.
func eligible(p Progress, c course.Course, passThreshold float64) bool {
	if !allLecturesWatched(p, c) {
		return false
	}
	if !c.HasQuizBank() {
		return true
	}
	best, ok := BestScore(p, c.ID)
	return ok && best >= passThreshold
}

// DeriveState computes the state of p in c.
func DeriveState(p *Progress, c course.Course) State {
	switch {
	case p == nil:
		return StateNotEnrolled
	case p.IsCompleted:
		return StateCompleted
	case allLecturesWatched(*p, c):
		return StateAllLecturesWatched
	default:
		return StateInProgress
	}
}

func statusOf(p Progress, c course.Course) Status {
	st := Status{
		Progress:        p,
		State:           DeriveState(&p, c),
		LecturesWatched: watchedCount(p, c),
		LecturesTotal:   c.NumberOfLectures(),
	}
	if best, ok := BestScore(p, c.ID); ok {
		st.BestScore = &best
	}
	return st
}

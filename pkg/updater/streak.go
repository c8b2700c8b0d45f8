package updater

import "sort"

// jstOffsetSecond shifts epoch seconds into the site's local time zone
// (UTC+9). Streak days are calendar days in that zone.
const jstOffsetSecond = 9 * 3600

const secondsPerDay = 24 * 3600

// maxStreak returns the length of the longest run of consecutive local
// calendar days covered by the given epoch seconds. Multiple times on the
// same day count once; an empty input has streak 0.
func maxStreak(epochSeconds []int64) int64 {
	if len(epochSeconds) == 0 {
		return 0
	}

	seen := make(map[int64]struct{}, len(epochSeconds))
	for _, epoch := range epochSeconds {
		seen[localDay(epoch)] = struct{}{}
	}
	days := make([]int64, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	var best, current int64 = 1, 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 1
		}
	}
	return best
}

func localDay(epochSecond int64) int64 {
	shifted := epochSecond + jstOffsetSecond
	day := shifted / secondsPerDay
	if shifted < 0 && shifted%secondsPerDay != 0 {
		day--
	}
	return day
}

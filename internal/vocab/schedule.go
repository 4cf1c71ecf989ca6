package vocab

// BaseIntervals defines the expanding review schedule in days.
// Stage 0 is the first review, the day after a word is learned.
var BaseIntervals = []int{1, 3, 7, 14, 30, 60}

// MaxStage is the highest stage index in BaseIntervals.
const MaxStage = 5

// GraduationStage is the number of consecutive hits after which a word
// graduates to the long interval.
const GraduationStage = 6

// GraduatedIntervalDays is the review interval for graduated words.
const GraduatedIntervalDays = 90

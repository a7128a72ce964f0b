package evaluator

import (
	"fmt"

	"github.com/NordCoder/Pushkeeper/internal/domain/user"
)

func reminderText(u *user.User, pushes int) string {
	return fmt.Sprintf("Hey %s, you've pushed %d/%d times today. Still time to ship something!",
		u.Name(), pushes, u.PushGoal)
}

func congratsText(u *user.User, pushes int) string {
	return fmt.Sprintf("Nice work %s! You hit your goal of %d pushes today (%d).",
		u.Name(), u.PushGoal, pushes)
}

package common

const (
	KEY_DATASET         = "dataset:%s"
	KEY_FRESH_DATASET   = "fresh_dataset:%s:%d"
	KEY_EARNINGS        = "earnings:%s"
	KEY_RANKED_UNIVERSE = "ranked_universe:%d:%d"
)

const (
	JOB_STATUS_RUNNING   = "running"
	JOB_STATUS_COMPLETED = "completed"
	JOB_STATUS_FAILED    = "failed"
)

const (
	OBJECTIVE_MEAN_WIN = "mean_win"
	OBJECTIVE_WIN_RATE = "win_rate"
	OBJECTIVE_WEALTH   = "wealth"
)

func GetObjectiveList() []string {
	return []string{
		OBJECTIVE_MEAN_WIN,
		OBJECTIVE_WIN_RATE,
		OBJECTIVE_WEALTH,
	}
}

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)

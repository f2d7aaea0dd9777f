package telegram

import "gopkg.in/telebot.v3"

var (
	btnDetailJob           = telebot.Btn{Unique: "btn_detail_job"}
	btnActionRunJob        = telebot.Btn{Text: "▶️ Jalankan", Unique: "btn_action_run_job"}
	btnActionBackToJobList = telebot.Btn{Text: "⬅️ Kembali", Unique: "btn_action_back_to_job_list"}
	btnDeleteMessage       = telebot.Btn{Text: "🗑 Tutup", Unique: "btn_delete_message"}
)

const (
	commonErrorInternal = "Terjadi kesalahan internal, silakan coba lagi"
	messageUnauthorized = "Chat ini tidak terdaftar."
	messageJobNotFound  = "Job tidak ditemukan."
	messageNoJobs       = "Tidak ada job yang terdaftar."
	messageJobStarted   = "Job dijalankan, hasil akan dikirim ke chat ini."

	helpMessage = `<b>Strategy Signal Bot</b>

/signals &lt;strategy&gt; [rank_start] [rank_end] - Entry dan exit hari ini
/jobs - Daftar scheduler dan jalankan job secara manual
/help - Tampilkan bantuan ini`

	recentRunLimit = 5
)

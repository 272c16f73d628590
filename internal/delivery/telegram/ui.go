package telegram

import "gopkg.in/telebot.v3"

var (
	btnNarrateSignal       telebot.Btn = telebot.Btn{Text: "🤖 Narasi AI", Unique: "btn_signal_narrative", Data: "%s"}
	btnScreenStock         telebot.Btn = telebot.Btn{Text: "🔍 Screen Ulang", Unique: "btn_screen_stock", Data: "%s"}
	btnDeleteMessage       telebot.Btn = telebot.Btn{Text: "🗑️ Hapus Pesan", Unique: "btn_delete_message"}
	btnRunBacktest         telebot.Btn = telebot.Btn{Unique: "btn_run_backtest", Data: "%s"}
	btnBacktestReport      telebot.Btn = telebot.Btn{Unique: "btn_backtest_report", Data: "%s"}
	btnDetailJob           telebot.Btn = telebot.Btn{Unique: "btn_detail_job"}
	btnActionRunJob        telebot.Btn = telebot.Btn{Text: "▶️ Jalankan Sekarang", Unique: "btn_action_run_job"}
	btnActionBackToJobList telebot.Btn = telebot.Btn{Text: "🔙 Kembali", Unique: "btn_action_back_to_job_list"}
)

const commonErrorInternal = "Terjadi kesalahan internal, silakan coba lagi."

package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	message := `👋 *Halo, selamat datang di Bot Abyss Screener!* 🤖
Saya memindai saham yang baru saja bangkit dari dasar setelah penurunan panjang, lalu memberi tahu kamu saat pola bottoming selesai terbentuk.

🔧 Berikut beberapa perintah yang bisa kamu gunakan:

🔍 /screen - Screening pola bottoming untuk saham pilihanmu
📶 /signals - Lihat sinyal terbaru hasil screening harian
👀 /watch - Tambahkan saham ke watchlist agar dapat alert BUY
🙈 /unwatch - Hapus saham dari watchlist
📋 /watchlist - Lihat daftar saham yang kamu pantau
📊 /backtest - Lihat hasil backtest & jalankan run baru
🔄 /scheduler	- Lihat status scheduler & jalankan job secara manual


💡 Info & Bantuan:
🆘 /help - Lihat panduan penggunaan lengkap
🔁 /start - Tampilkan pesan ini lagi
❌ /cancel - Batalkan perintah yang sedang berjalan

🚀 *Siap mulai?* Coba ketik /screen untuk memindai saham pertamamu!`
	return c.Send(message, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	message := `❓ *Panduan Penggunaan Bot Abyss Screener* ❓

Bot ini memindai saham yang sudah jatuh dalam, tertidur lama, lalu menunjukkan tanda bangkit dari dasarnya. Pola dicek lewat empat tahapan: Deep Decline, Hibernation, Washout, dan Liftoff.

Berikut daftar perintah yang bisa kamu gunakan:

🤖 *Perintah Utama:*
/start - Menampilkan pesan sambutan
/help - Menampilkan panduan ini
/screen - Screening interaktif untuk saham tertentu
/signals - Lihat sinyal BUY terbaru dari screening harian
/watch - Tambahkan saham ke watchlist untuk alert BUY otomatis
/unwatch - Hapus saham dari watchlist
/watchlist - Lihat semua saham yang sedang kamu pantau
/backtest - Lihat performa historis strategi & jalankan run baru
/cancel - Batalkan perintah yang sedang berjalan
/scheduler	- Lihat status scheduler & jalankan job secara manual

💡 *Tips Penggunaan:*
1. Gunakan /screen untuk cek cepat satu saham (contoh input: IDX:BBCA atau cukup 'BBCA')
2. Tambahkan saham favoritmu lewat /watch agar tidak ketinggalan sinyal BUY
3. Cek /signals setiap pagi untuk melihat hasil screening semalam
4. Lihat /backtest dulu sebelum percaya pada sinyalnya


📌 Gunakan sinyal ini sebagai referensi tambahan saja, ya.
Keputusan tetap di tangan kamu — jangan lupa *Do Your Own Research!* 🔍`
	return c.Send(message, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

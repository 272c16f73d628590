package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"abyss-screener/internal/dto"
	"abyss-screener/pkg/logger"
)

func (r *geminiAIRepository) promptNarrateSignal(param dto.AINarrateSignalParam) (string, error) {
	var sb strings.Builder

	// Intro Prompt
	sb.WriteString(fmt.Sprintf(
		"Kamu adalah sistem AI analis teknikal profesional yang bertugas membaca hasil screening pola bottoming untuk saham %s di exchange %s. Screening berjalan dalam 4 tahap berurutan: deep_decline, hibernation, washout, liftoff. Setiap tahap memiliki status passed dan kumpulan nilai diagnostik.\n\n",
		param.StockCode, param.Exchange,
	))

	sb.WriteString(`### Tugas Utama:
1. Berikan stance untuk saham ini: hanya "ACCUMULATE", "WATCH", atau "AVOID".
2. ACCUMULATE hanya jika keempat tahap passed dan nilai diagnostik saling mendukung (volume mengering lalu ekspansi di liftoff, harga bertahan di dasar).
3. WATCH jika tahap-tahap awal passed tapi tahap akhir belum meyakinkan atau baru saja lolos dengan margin tipis.
4. AVOID jika ada tahap yang gagal atau nilai diagnostik menunjukkan tekanan jual yang masih berlanjut.
5. Tentukan tingkat keyakinan (confidence level) dalam bentuk persentase (0-100).
6. Tambahkan key_observations dalam format map[string]string:
   - AI bebas menentukan key-nya (contoh: "drawdown", "volume", "volatility", "support", "liftoff", dsb).
   - Value berisi observasi singkat per tahap, maksimal **100 karakter per item**.
   - Key boleh dalam bahasa inggris(lowercase) namun untuk Value WAJIB dalam bahasa Indonesia.
   - Maksimal 8 item dalam key_observations.
7. Isi risks dengan risiko utama skenario ini dalam satu kalimat.
8. Berikan **alasan utama** dari stance pada field reason, berdasarkan tahap yang paling menentukan.
`)

	sb.WriteString(`
### Arti Tahapan Screening:
- deep_decline: harga sudah jatuh dalam dari puncak jangka panjang dan volume mengering.
- hibernation: harga bergerak sempit di dasar dengan volatilitas rendah.
- washout: guguran terakhir di bawah support dengan volume yang justru menyusut.
- liftoff: harga mulai berbalik di dekat dasar dengan ekspansi volume.
`)

	sb.WriteString(`
### Format Output JSON (WAJIB - tanpa tambahan teks lainnya):
{
  "stance": "ACCUMULATE | WATCH | AVOID",
  "confidence": 0,
  "key_observations": {
     "key": "value",
	 "key2": "value2",
	 ....
  },
  "risks": "Risiko utama dari skenario ini",
  "reason": "Alasan utama pengambilan stance dari tahap yang paling menentukan"
}
`)

	// Tambahkan input data ke prompt
	inputDataJson, err := json.Marshal(param)
	if err != nil {
		r.logger.Error("failed to marshal params when narrating signal", logger.ErrorField(err))
		return "", err
	}

	sb.WriteString("\n\n### Input Data (Status Tahapan + Diagnostik + OHLCV Terakhir):\n")
	sb.WriteString(string(inputDataJson))

	return sb.String(), nil
}

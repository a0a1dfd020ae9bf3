//go:build linux && cgo

package audio

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

const platformSupported = true

type linuxDetector struct{}

func newPlatformDetector() Detector {
	return &linuxDetector{}
}

// ListDevices enumerates ALSA playback devices across all sound cards.
func (d *linuxDetector) ListDevices() ([]Device, error) {
	var devices []Device

	cardNum := C.int(-1)
	for C.snd_card_next(&cardNum) >= 0 && cardNum >= 0 {
		card := d.cardInfo(int(cardNum))
		if card == nil {
			continue
		}
		devices = append(devices, d.playbackDevices(int(cardNum), card)...)
	}

	return devices, nil
}

type cardInfo struct {
	id       string
	longname string
}

func (d *linuxDetector) cardInfo(cardNum int) *cardInfo {
	var ctl *C.snd_ctl_t
	cardName := fmt.Sprintf("hw:%d", cardNum)
	cCardName := C.CString(cardName)
	defer C.free(unsafe.Pointer(cCardName))

	if C.snd_ctl_open(&ctl, cCardName, 0) < 0 { //nolint:gocritic // CGO false positive
		return nil
	}
	defer C.snd_ctl_close(ctl)

	var info *C.snd_ctl_card_info_t
	C.snd_ctl_card_info_malloc(&info) //nolint:gocritic // CGO false positive
	defer C.snd_ctl_card_info_free(info)

	if C.snd_ctl_card_info(ctl, info) < 0 {
		return nil
	}

	return &cardInfo{
		id:       C.GoString(C.snd_ctl_card_info_get_id(info)),
		longname: C.GoString(C.snd_ctl_card_info_get_longname(info)),
	}
}

func (d *linuxDetector) playbackDevices(cardNum int, card *cardInfo) []Device {
	var devices []Device
	var ctl *C.snd_ctl_t

	cardName := fmt.Sprintf("hw:%d", cardNum)
	cCardName := C.CString(cardName)
	defer C.free(unsafe.Pointer(cCardName))

	if C.snd_ctl_open(&ctl, cCardName, 0) < 0 { //nolint:gocritic // CGO false positive
		return devices
	}
	defer C.snd_ctl_close(ctl)

	deviceNum := C.int(-1)
	for C.snd_ctl_pcm_next_device(ctl, &deviceNum) >= 0 && deviceNum >= 0 {
		name := d.pcmName(ctl, int(deviceNum))
		if name == "" {
			continue
		}

		devices = append(devices, Device{
			ID:       fmt.Sprintf("hw:%d,%d", cardNum, int(deviceNum)),
			Name:     name,
			CardName: card.longname,
		})
	}

	return devices
}

// pcmName returns the device name when it supports playback, "" otherwise.
func (d *linuxDetector) pcmName(ctl *C.snd_ctl_t, deviceNum int) string {
	var info *C.snd_pcm_info_t
	C.snd_pcm_info_malloc(&info) //nolint:gocritic // CGO false positive
	defer C.snd_pcm_info_free(info)

	C.snd_pcm_info_set_device(info, C.uint(deviceNum))
	C.snd_pcm_info_set_subdevice(info, 0)
	C.snd_pcm_info_set_stream(info, C.SND_PCM_STREAM_PLAYBACK)

	if C.snd_ctl_pcm_info(ctl, info) < 0 {
		return ""
	}

	return C.GoString(C.snd_pcm_info_get_name(info))
}
